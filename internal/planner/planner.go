// Package planner selects and orders the next cards a user should study.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/grammr/srs/internal/domain"
	"github.com/grammr/srs/internal/fsrs"
)

// Store is the card selection surface the planner needs from storage.
type Store interface {
	DueReviewCards(ctx context.Context, userID string, now time.Time, limit int) ([]domain.CardWithFlashcard, error)
	NewCards(ctx context.Context, userID string, limit int) ([]domain.CardWithFlashcard, error)
	CountNewCards(ctx context.Context, userID string) (int, error)
	CountDueReviewCards(ctx context.Context, userID string, now time.Time) (int, error)
}

// Planner builds study batches: overdue review cards strictly before New
// cards, each with its four-way scheduling projection attached.
type Planner struct {
	store     Store
	scheduler *fsrs.Scheduler
}

// New creates a Planner.
func New(store Store, scheduler *fsrs.Scheduler) *Planner {
	return &Planner{store: store, scheduler: scheduler}
}

// StudyItem pairs a card with the projected outcome of each rating.
type StudyItem struct {
	Card              domain.CardWithFlashcard `json:"card"`
	SchedulingOptions [4]fsrs.SchedulingInfo   `json:"schedulingOptions"`
}

// Progress summarizes how far through the due set a session is.
type Progress struct {
	Reviewed  int `json:"reviewed"`
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

// Batch is one page of the due set.
type Batch struct {
	Cards    []StudyItem `json:"cards"`
	Progress Progress    `json:"sessionProgress"`
}

// Counts reports the size of the due set. DueCount includes NewCount only
// when the caller asked for it.
type Counts struct {
	DueCount    int `json:"dueCount"`
	NewCount    int `json:"newCount"`
	ReviewCount int `json:"reviewCount"`
}

// NextBatch returns up to limit cards to study: review cards with due <= now
// ordered oldest-overdue first, then New cards oldest-created first filling
// the remaining slots.
func (p *Planner) NextBatch(ctx context.Context, userID string, now time.Time, limit int) (*Batch, error) {
	cards, err := p.store.DueReviewCards(ctx, userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due review cards: %w", err)
	}

	if remaining := limit - len(cards); remaining > 0 {
		newCards, err := p.store.NewCards(ctx, userID, remaining)
		if err != nil {
			return nil, fmt.Errorf("new cards: %w", err)
		}
		cards = append(cards, newCards...)
	}

	items := make([]StudyItem, 0, len(cards))
	for _, card := range cards {
		options, err := p.scheduler.Project(card.Scheduling(), now)
		if err != nil {
			return nil, fmt.Errorf("project card %d: %w", card.ID, err)
		}
		items = append(items, StudyItem{Card: card, SchedulingOptions: options})
	}

	counts, err := p.Counts(ctx, userID, now, true)
	if err != nil {
		return nil, err
	}

	return &Batch{
		Cards: items,
		Progress: Progress{
			Reviewed:  0,
			Remaining: counts.DueCount,
			Total:     counts.DueCount,
		},
	}, nil
}

// Counts reports newCount (cards never studied, regardless of due date)
// and reviewCount (non-New cards with due <= now) separately.
func (p *Planner) Counts(ctx context.Context, userID string, now time.Time, includeNew bool) (Counts, error) {
	newCount, err := p.store.CountNewCards(ctx, userID)
	if err != nil {
		return Counts{}, fmt.Errorf("count new cards: %w", err)
	}
	reviewCount, err := p.store.CountDueReviewCards(ctx, userID, now)
	if err != nil {
		return Counts{}, fmt.Errorf("count due review cards: %w", err)
	}

	due := reviewCount
	if includeNew {
		due += newCount
	}
	return Counts{DueCount: due, NewCount: newCount, ReviewCount: reviewCount}, nil
}
