// Package domain holds the persisted entities shared by storage, planner
// and the web layer.
package domain

import (
	"time"

	"github.com/grammr/srs/internal/fsrs"
)

// Flashcard is the content half of a card: what the user actually studies.
// Content originates from synced markdown sources and is deduplicated by
// the normalized content hash.
type Flashcard struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Front       string    `db:"front" json:"front"`
	Translation string    `db:"translation" json:"translation"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	Hash        string    `db:"hash" json:"-"`
	SourceID    int64     `db:"source_id" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

// Card is the scheduling half: one row per (flashcard, user) pair.
type Card struct {
	ID            int64      `db:"id" json:"id"`
	FlashcardID   int64      `db:"flashcard_id" json:"flashcard_id"`
	UserID        string     `db:"user_id" json:"user_id"`
	Due           time.Time  `db:"due" json:"due"`
	Stability     float64    `db:"stability" json:"stability"`
	Difficulty    float64    `db:"difficulty" json:"difficulty"`
	ElapsedDays   int        `db:"elapsed_days" json:"elapsed_days"`
	ScheduledDays int        `db:"scheduled_days" json:"scheduled_days"`
	LearningSteps int        `db:"learning_steps" json:"learning_steps"`
	Reps          int        `db:"reps" json:"reps"`
	Lapses        int        `db:"lapses" json:"lapses"`
	State         fsrs.State `db:"state" json:"state"`
	LastReview    *time.Time `db:"last_review" json:"last_review"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Scheduling extracts the pure scheduling state for the fsrs engine.
func (c Card) Scheduling() fsrs.Card {
	return fsrs.Card{
		ID:            c.ID,
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   c.ElapsedDays,
		ScheduledDays: c.ScheduledDays,
		LearningSteps: c.LearningSteps,
		Reps:          c.Reps,
		Lapses:        c.Lapses,
		State:         c.State,
		LastReview:    c.LastReview,
	}
}

// ApplyScheduling writes an engine result back onto the persisted card.
func (c *Card) ApplyScheduling(next fsrs.Card) {
	c.Due = next.Due
	c.Stability = next.Stability
	c.Difficulty = next.Difficulty
	c.ElapsedDays = next.ElapsedDays
	c.ScheduledDays = next.ScheduledDays
	c.LearningSteps = next.LearningSteps
	c.Reps = next.Reps
	c.Lapses = next.Lapses
	c.State = next.State
	c.LastReview = next.LastReview
}

// CardWithFlashcard is the study-view join of scheduling state and content.
type CardWithFlashcard struct {
	Card
	Flashcard Flashcard `json:"flashcard"`
}

// ReviewLog is the append-only persisted record of one review. Field values
// mirror fsrs.ReviewLog; see there for semantics.
type ReviewLog struct {
	ID              int64       `db:"id" json:"id"`
	CardID          int64       `db:"card_id" json:"card_id"`
	Rating          fsrs.Rating `db:"rating" json:"rating"`
	State           fsrs.State  `db:"state" json:"state"`
	Due             time.Time   `db:"due" json:"due"`
	Stability       float64     `db:"stability" json:"stability"`
	Difficulty      float64     `db:"difficulty" json:"difficulty"`
	ElapsedDays     int         `db:"elapsed_days" json:"elapsed_days"`
	LastElapsedDays int         `db:"last_elapsed_days" json:"last_elapsed_days"`
	ScheduledDays   int         `db:"scheduled_days" json:"scheduled_days"`
	LearningSteps   int         `db:"learning_steps" json:"learning_steps"`
	Review          time.Time   `db:"review" json:"review"`
	CreatedAt       time.Time   `db:"created_at" json:"-"`
}

// NewReviewLog converts an engine log into its persisted form.
func NewReviewLog(log fsrs.ReviewLog) ReviewLog {
	return ReviewLog{
		CardID:          log.CardID,
		Rating:          log.Rating,
		State:           log.State,
		Due:             log.Due,
		Stability:       log.Stability,
		Difficulty:      log.Difficulty,
		ElapsedDays:     log.ElapsedDays,
		LastElapsedDays: log.LastElapsedDays,
		ScheduledDays:   log.ScheduledDays,
		LearningSteps:   log.LearningSteps,
		Review:          log.Review,
	}
}

// Source is the origin of flashcard content: a local directory or a git
// repository of markdown files.
type Source struct {
	ID          int64      `db:"id"`
	UserID      string     `db:"user_id"`
	Path        string     `db:"path"`
	Type        string     `db:"type"` // "local" or "git"
	LastScanned *time.Time `db:"last_scanned"`
}
