package fsrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
}

// reviewCard returns a card sitting in the long-term Review cycle, last
// reviewed elapsed days before testTime.
func reviewCard(t *testing.T, elapsedDays int) Card {
	t.Helper()
	last := testTime().AddDate(0, 0, -elapsedDays)
	return Card{
		ID:            42,
		Due:           testTime(),
		Stability:     10,
		Difficulty:    5,
		ElapsedDays:   elapsedDays,
		ScheduledDays: elapsedDays,
		Reps:          3,
		State:         Review,
		LastReview:    &last,
	}
}

func newScheduler(t *testing.T, mutate func(*Params)) *Scheduler {
	t.Helper()
	p := DefaultParams()
	p.EnableFuzz = false
	if mutate != nil {
		mutate(&p)
	}
	s, err := NewScheduler(p)
	require.NoError(t, err)
	return s
}

func TestNewScheduler(t *testing.T) {
	t.Run("default params are valid", func(t *testing.T) {
		_, err := NewScheduler(DefaultParams())
		require.NoError(t, err)
	})

	t.Run("rejects out-of-bounds weights", func(t *testing.T) {
		p := DefaultParams()
		p.Weights[4] = 50
		_, err := NewScheduler(p)
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("rejects retention outside (0,1)", func(t *testing.T) {
		p := DefaultParams()
		p.RequestRetention = 1.0
		_, err := NewScheduler(p)
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("rejects non-positive maximum interval", func(t *testing.T) {
		p := DefaultParams()
		p.MaximumInterval = 0
		_, err := NewScheduler(p)
		assert.ErrorIs(t, err, ErrInvalidParams)
	})
}

func TestNextContractErrors(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()

	t.Run("invalid rating", func(t *testing.T) {
		_, _, err := s.Next(NewCard(1, now), Rating(0), now)
		assert.ErrorIs(t, err, ErrInvalidRating)
		_, _, err = s.Next(NewCard(1, now), Rating(5), now)
		assert.ErrorIs(t, err, ErrInvalidRating)
	})

	t.Run("negative stability fails loudly", func(t *testing.T) {
		c := reviewCard(t, 10)
		c.Stability = -1
		_, _, err := s.Next(c, Good, now)
		assert.ErrorIs(t, err, ErrNegativeStability)
	})

	t.Run("unknown state", func(t *testing.T) {
		c := reviewCard(t, 10)
		c.State = State(9)
		_, _, err := s.Next(c, Good, now)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestRatingMonotonicity(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()
	card := reviewCard(t, 10)

	hard, _, err := s.Next(card, Hard, now)
	require.NoError(t, err)
	good, _, err := s.Next(card, Good, now)
	require.NoError(t, err)
	easy, _, err := s.Next(card, Easy, now)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, easy.ScheduledDays, good.ScheduledDays)
	assert.GreaterOrEqual(t, good.ScheduledDays, hard.ScheduledDays)
	assert.Greater(t, easy.Stability, good.Stability)
	assert.Greater(t, good.Stability, hard.Stability)
}

func TestAgainIsLapse(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()
	card := reviewCard(t, 10)

	next, log, err := s.Next(card, Again, now)
	require.NoError(t, err)

	assert.Equal(t, Relearning, next.State)
	assert.Equal(t, card.Lapses+1, next.Lapses)
	assert.Less(t, next.Stability, card.Stability, "post-lapse stability must shrink")
	assert.Equal(t, 0, next.LearningSteps, "lapse resets the ladder")
	assert.Greater(t, next.Difficulty, card.Difficulty, "Again increases difficulty")
	assert.Equal(t, Relearning, log.State)
}

func TestDifficultyMovesByRating(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()
	card := reviewCard(t, 10)

	easy, _, err := s.Next(card, Easy, now)
	require.NoError(t, err)
	assert.Less(t, easy.Difficulty, card.Difficulty, "Easy decreases difficulty")

	for _, rating := range []Rating{Again, Hard, Good, Easy} {
		next, _, err := s.Next(card, rating, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next.Difficulty, 1.0)
		assert.LessOrEqual(t, next.Difficulty, 10.0)
	}
}

func TestLowRetrievabilityGrowsStabilityMore(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()

	// Same memory state, reviewed on time vs badly overdue. The overdue
	// success is more informative and must grow stability more.
	onTime, _, err := s.Next(reviewCard(t, 10), Good, now)
	require.NoError(t, err)
	overdue, _, err := s.Next(reviewCard(t, 40), Good, now)
	require.NoError(t, err)

	assert.Greater(t, overdue.Stability, onTime.Stability)
}

func TestStateMachineClosure(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()
	last := now.Add(-36 * time.Hour)

	cards := map[string]Card{
		"new":        NewCard(1, now),
		"learning":   {ID: 2, Due: now, Stability: 1.2, Difficulty: 6, Reps: 1, State: Learning, LastReview: &last},
		"review":     reviewCard(t, 10),
		"relearning": {ID: 3, Due: now, Stability: 0.8, Difficulty: 7, Reps: 4, Lapses: 1, LearningSteps: 0, State: Relearning, LastReview: &last},
	}

	for name, card := range cards {
		for _, rating := range []Rating{Again, Hard, Good, Easy} {
			t.Run(name+"/"+rating.String(), func(t *testing.T) {
				next, _, err := s.Next(card, rating, now)
				require.NoError(t, err)
				assert.Contains(t, []State{Learning, Review, Relearning}, next.State,
					"New must never be re-entered")
				assert.Equal(t, card.Reps+1, next.Reps)
				assert.True(t, next.Due.After(now))
			})
		}
	}
}

func TestLearningLadder(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()

	t.Run("new card Again starts at first step", func(t *testing.T) {
		next, _, err := s.Next(NewCard(1, now), Again, now)
		require.NoError(t, err)
		assert.Equal(t, Learning, next.State)
		assert.Equal(t, 0, next.LearningSteps)
		assert.Equal(t, now.Add(time.Minute), next.Due)
	})

	t.Run("new card Good advances to second step", func(t *testing.T) {
		next, _, err := s.Next(NewCard(1, now), Good, now)
		require.NoError(t, err)
		assert.Equal(t, Learning, next.State)
		assert.Equal(t, 1, next.LearningSteps)
		assert.Equal(t, now.Add(10*time.Minute), next.Due)
	})

	t.Run("new card Hard waits between the first two steps", func(t *testing.T) {
		next, _, err := s.Next(NewCard(1, now), Hard, now)
		require.NoError(t, err)
		assert.Equal(t, Learning, next.State)
		assert.Equal(t, now.Add(5*time.Minute+30*time.Second), next.Due)
	})

	t.Run("new card Easy graduates immediately", func(t *testing.T) {
		next, _, err := s.Next(NewCard(1, now), Easy, now)
		require.NoError(t, err)
		assert.Equal(t, Review, next.State)
		assert.GreaterOrEqual(t, next.ScheduledDays, 1)
	})

	t.Run("Good on last step graduates", func(t *testing.T) {
		first, _, err := s.Next(NewCard(1, now), Good, now)
		require.NoError(t, err)
		second, _, err := s.Next(first, Good, first.Due)
		require.NoError(t, err)
		assert.Equal(t, Review, second.State)
		assert.Equal(t, 0, second.LearningSteps)
		assert.GreaterOrEqual(t, second.ScheduledDays, 1)
	})

	t.Run("relearning Good exits back to Review", func(t *testing.T) {
		lapsed, _, err := s.Next(reviewCard(t, 10), Again, now)
		require.NoError(t, err)
		require.Equal(t, Relearning, lapsed.State)

		recovered, _, err := s.Next(lapsed, Good, lapsed.Due)
		require.NoError(t, err)
		assert.Equal(t, Review, recovered.State)
	})
}

func TestShortTermDisabled(t *testing.T) {
	s := newScheduler(t, func(p *Params) { p.EnableShortTerm = false })
	now := testTime()

	next, _, err := s.Next(NewCard(1, now), Good, now)
	require.NoError(t, err)
	assert.Equal(t, Review, next.State, "no ladder without short-term scheduling")
	assert.GreaterOrEqual(t, next.ScheduledDays, 1)
}

func TestMaximumIntervalClamp(t *testing.T) {
	s := newScheduler(t, func(p *Params) { p.MaximumInterval = 30 })
	now := testTime()

	card := reviewCard(t, 10)
	card.Stability = 5000

	next, _, err := s.Next(card, Easy, now)
	require.NoError(t, err)
	assert.Equal(t, 30, next.ScheduledDays)
}

func TestProjection(t *testing.T) {
	now := testTime()

	t.Run("covers all ratings in order", func(t *testing.T) {
		s := newScheduler(t, nil)
		options, err := s.Project(reviewCard(t, 10), now)
		require.NoError(t, err)
		assert.Equal(t, [4]Rating{Again, Hard, Good, Easy},
			[4]Rating{options[0].Rating, options[1].Rating, options[2].Rating, options[3].Rating})
		for _, opt := range options {
			assert.NotEmpty(t, opt.NextReviewInterval)
		}
	})

	t.Run("idempotent without fuzz", func(t *testing.T) {
		s := newScheduler(t, nil)
		first, err := s.Project(reviewCard(t, 10), now)
		require.NoError(t, err)
		second, err := s.Project(reviewCard(t, 10), now)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("deterministic with fuzz on the same day", func(t *testing.T) {
		s := newScheduler(t, func(p *Params) { p.EnableFuzz = true })
		first, err := s.Project(reviewCard(t, 10), now)
		require.NoError(t, err)
		second, err := s.Project(reviewCard(t, 10), now)
		require.NoError(t, err)
		assert.Equal(t, first, second, "fuzz must be seeded per card and day")
	})

	t.Run("projection matches the committed review", func(t *testing.T) {
		s := newScheduler(t, func(p *Params) { p.EnableFuzz = true })
		card := reviewCard(t, 10)
		options, err := s.Project(card, now)
		require.NoError(t, err)
		committed, _, err := s.Next(card, Good, now)
		require.NoError(t, err)
		assert.Equal(t, options[2].Card, committed)
	})
}

func TestLogFidelity(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()

	for _, rating := range []Rating{Again, Hard, Good, Easy} {
		t.Run(rating.String(), func(t *testing.T) {
			next, log, err := s.Next(reviewCard(t, 10), rating, now)
			require.NoError(t, err)
			assert.Equal(t, next.ID, log.CardID)
			assert.Equal(t, next.State, log.State)
			assert.Equal(t, next.Due, log.Due)
			assert.Equal(t, next.Stability, log.Stability)
			assert.Equal(t, next.Difficulty, log.Difficulty)
			assert.Equal(t, next.ScheduledDays, log.ScheduledDays)
			assert.Equal(t, next.LearningSteps, log.LearningSteps)
			assert.Equal(t, now, log.Review)
			assert.Equal(t, 10, log.LastElapsedDays, "log keeps the previous elapsed value")
		})
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	s := newScheduler(t, nil)
	t0 := testTime()

	card := NewCard(7, t0)
	require.Equal(t, New, card.State)
	require.Equal(t, 0, card.Reps)
	require.Nil(t, card.LastReview)

	card, _, err := s.Next(card, Good, t0)
	require.NoError(t, err)
	assert.NotEqual(t, New, card.State)
	assert.Equal(t, 1, card.Reps)
	assert.True(t, card.Due.After(t0))

	stabilityBefore := card.Stability
	card, _, err = s.Next(card, Again, card.Due)
	require.NoError(t, err)
	assert.Equal(t, Relearning, card.State)
	assert.Equal(t, 1, card.Lapses)
	assert.Less(t, card.Stability, stabilityBefore)
}

func TestRetrievability(t *testing.T) {
	s := newScheduler(t, nil)
	now := testTime()

	t.Run("unreviewed card has zero retrievability", func(t *testing.T) {
		assert.Zero(t, s.Retrievability(NewCard(1, now), now))
	})

	t.Run("equals target retention at the stability horizon", func(t *testing.T) {
		card := reviewCard(t, 10) // stability 10, last review 10 days ago
		assert.InDelta(t, 0.9, s.Retrievability(card, now), 0.001)
	})

	t.Run("decays monotonically with elapsed time", func(t *testing.T) {
		card := reviewCard(t, 10)
		r1 := s.Retrievability(card, now)
		r2 := s.Retrievability(card, now.AddDate(0, 0, 20))
		assert.Greater(t, r1, r2)
	})
}
