package fsrs

import "time"

// Card is the scheduling state of a single card. Fields mirror what the
// storage layer persists per (flashcard, user) pair.
type Card struct {
	ID            int64      `json:"id"`
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`      // days until retrievability decays to the retention target
	Difficulty    float64    `json:"difficulty"`     // intrinsic hardness, clamped to [1, 10] once initialized
	ElapsedDays   int        `json:"elapsed_days"`   // actual gap since the previous review
	ScheduledDays int        `json:"scheduled_days"` // planned gap chosen at the previous review
	LearningSteps int        `json:"learning_steps"` // position in the Learning/Relearning ladder
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         State      `json:"state"`
	LastReview    *time.Time `json:"last_review"`
}

// NewCard returns a card in the New state, due immediately.
func NewCard(id int64, now time.Time) Card {
	return Card{
		ID:    id,
		Due:   now,
		State: New,
	}
}

// ReviewLog is the append-only record of one submitted review. All card
// fields are the post-update values, so the log is always a faithful
// snapshot of what was persisted alongside it. LastElapsedDays keeps the
// elapsed-days value from the review before this one so history can be
// reconstructed.
type ReviewLog struct {
	CardID          int64     `json:"card_id"`
	Rating          Rating    `json:"rating"`
	State           State     `json:"state"`
	Due             time.Time `json:"due"`
	Stability       float64   `json:"stability"`
	Difficulty      float64   `json:"difficulty"`
	ElapsedDays     int       `json:"elapsed_days"`
	LastElapsedDays int       `json:"last_elapsed_days"`
	ScheduledDays   int       `json:"scheduled_days"`
	LearningSteps   int       `json:"learning_steps"`
	Review          time.Time `json:"review"`
}

// SchedulingInfo is the ephemeral projection of one rating's outcome,
// computed for UI preview before the user commits to a rating.
type SchedulingInfo struct {
	Rating             Rating `json:"rating"`
	NextReviewInterval string `json:"nextReviewInterval"`
	ScheduledDays      int    `json:"scheduledDays"`
	Card               Card   `json:"card"`
}
