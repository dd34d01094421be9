package fsrs

import (
	"fmt"
	"math"
	"time"
)

// Scheduler computes review outcomes. It is stateless apart from its
// parameters and safe for concurrent use.
type Scheduler struct {
	algo            algo
	params          Params
	learningSteps   []time.Duration
	relearningSteps []time.Duration
}

// NewScheduler validates the parameters and builds a scheduler. With
// EnableShortTerm off the step ladders are dropped and every card goes
// straight to day-scale Review intervals.
func NewScheduler(p Params) (*Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ls, rs := p.LearningSteps, p.RelearningSteps
	if !p.EnableShortTerm {
		ls, rs = nil, nil
	}
	return &Scheduler{
		algo:            newAlgo(p.Weights),
		params:          p,
		learningSteps:   ls,
		relearningSteps: rs,
	}, nil
}

// Retrievability returns the modeled probability of recall at the given
// time, or 0 for a card that has never been reviewed.
func (s *Scheduler) Retrievability(card Card, now time.Time) float64 {
	if card.LastReview == nil || card.Stability <= 0 {
		return 0
	}
	elapsed := math.Max(0, now.Sub(*card.LastReview).Hours()/24)
	return s.algo.retrievability(elapsed, card.Stability)
}

// Next applies a single review and returns the updated card plus its review
// log. The input card is not mutated. The log's card fields equal the
// returned card's fields exactly.
func (s *Scheduler) Next(card Card, rating Rating, now time.Time) (Card, ReviewLog, error) {
	if !rating.IsValid() {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if !card.State.IsValid() {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidState, int(card.State))
	}
	if card.Stability < 0 {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %f on card %d", ErrNegativeStability, card.Stability, card.ID)
	}

	c := card
	lastElapsed := card.ElapsedDays

	var elapsed float64
	if card.LastReview != nil {
		elapsed = now.Sub(*card.LastReview).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
	}

	s.updateMemory(&c, rating, elapsed)
	c.Reps++
	c.ElapsedDays = int(elapsed)

	interval := s.transition(&c, rating, now)

	c.ScheduledDays = int(interval.Hours() / 24.0)
	c.Due = now.Add(interval)
	c.LastReview = &now

	log := ReviewLog{
		CardID:          c.ID,
		Rating:          rating,
		State:           c.State,
		Due:             c.Due,
		Stability:       c.Stability,
		Difficulty:      c.Difficulty,
		ElapsedDays:     c.ElapsedDays,
		LastElapsedDays: lastElapsed,
		ScheduledDays:   c.ScheduledDays,
		LearningSteps:   c.LearningSteps,
		Review:          now,
	}
	return c, log, nil
}

// Project computes the outcome of every possible rating so a caller can
// preview all four options before the user picks one. Results are
// deterministic for a given (card, now): fuzz is seeded per card and day.
func (s *Scheduler) Project(card Card, now time.Time) ([4]SchedulingInfo, error) {
	var out [4]SchedulingInfo
	for i, r := range []Rating{Again, Hard, Good, Easy} {
		next, _, err := s.Next(card, r, now)
		if err != nil {
			return out, err
		}
		out[i] = SchedulingInfo{
			Rating:             r,
			NextReviewInterval: FormatInterval(next.Due.Sub(now)),
			ScheduledDays:      next.ScheduledDays,
			Card:               next,
		}
	}
	return out, nil
}

// updateMemory recomputes stability and difficulty for the review.
func (s *Scheduler) updateMemory(c *Card, rating Rating, elapsed float64) {
	if c.State == New || c.LastReview == nil || c.Stability == 0 {
		c.Stability = s.algo.initStability(rating)
		c.Difficulty = s.algo.initDifficulty(rating, true)
		return
	}

	if elapsed < 1 && s.params.EnableShortTerm {
		c.Stability = s.algo.shortTermStability(c.Stability, rating)
	} else {
		retr := s.algo.retrievability(elapsed, c.Stability)
		c.Stability = s.algo.nextStability(c.Difficulty, c.Stability, retr, rating)
	}
	c.Difficulty = s.algo.nextDifficulty(c.Difficulty, rating)
}

// transition applies the state machine and returns the scheduling interval.
// New is never re-entered; every result lands in Learning, Review or
// Relearning.
func (s *Scheduler) transition(c *Card, rating Rating, now time.Time) time.Duration {
	if rating == Again {
		if c.State == New {
			c.State = Learning
			c.LearningSteps = 0
			if len(s.learningSteps) > 0 {
				return s.learningSteps[0]
			}
			return s.graduate(c, now)
		}
		// A failed review of previously studied material is a lapse.
		c.Lapses++
		c.State = Relearning
		c.LearningSteps = 0
		if len(s.relearningSteps) > 0 {
			return s.relearningSteps[0]
		}
		return s.intervalFromStability(c, now)
	}

	switch c.State {
	case New:
		c.State = Learning
		c.LearningSteps = 0
		return s.ladder(c, rating, s.learningSteps, now)
	case Learning:
		return s.ladder(c, rating, s.learningSteps, now)
	case Relearning:
		return s.ladder(c, rating, s.relearningSteps, now)
	default: // Review
		return s.intervalFromStability(c, now)
	}
}

// ladder advances a card through its Learning/Relearning steps on a
// successful rating. Easy skips the rest of the ladder; Good advances one
// step and graduates past the last; Hard repeats the current step, with the
// first step stretched so Hard still waits longer than Again.
func (s *Scheduler) ladder(c *Card, rating Rating, steps []time.Duration, now time.Time) time.Duration {
	step := c.LearningSteps
	if len(steps) == 0 || step >= len(steps) {
		return s.graduate(c, now)
	}

	switch rating {
	case Hard:
		if step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if step == 0 && len(steps) >= 2 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]
	case Good:
		next := step + 1
		if next >= len(steps) {
			return s.graduate(c, now)
		}
		c.LearningSteps = next
		return steps[next]
	default: // Easy
		return s.graduate(c, now)
	}
}

// graduate promotes the card into the long-term Review cycle.
func (s *Scheduler) graduate(c *Card, now time.Time) time.Duration {
	c.State = Review
	c.LearningSteps = 0
	return s.intervalFromStability(c, now)
}

// intervalFromStability converts current stability into the scheduled gap,
// clamped to the configured maximum and fuzzed for Review-state cards.
func (s *Scheduler) intervalFromStability(c *Card, now time.Time) time.Duration {
	days := s.algo.nextInterval(c.Stability, s.params.RequestRetention, s.params.MaximumInterval)
	if s.params.EnableFuzz && c.State == Review {
		days = applyFuzz(days, s.params.MaximumInterval, fuzzRNG(c.ID, now))
	}
	return time.Duration(days) * 24 * time.Hour
}
