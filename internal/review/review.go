// Package review turns a (card, rating, timestamp) triple into the card's
// next persisted state plus its immutable log entry.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/grammr/srs/internal/domain"
	"github.com/grammr/srs/internal/fsrs"
)

// Record computes the review outcome without touching storage. The returned
// log's card fields are identical to the updated card's fields, so the log
// is always a faithful post-state snapshot.
func Record(scheduler *fsrs.Scheduler, card domain.Card, rating fsrs.Rating, now time.Time) (domain.Card, domain.ReviewLog, error) {
	next, log, err := scheduler.Next(card.Scheduling(), rating, now)
	if err != nil {
		return domain.Card{}, domain.ReviewLog{}, err
	}
	card.ApplyScheduling(next)
	return card, domain.NewReviewLog(log), nil
}

// Store is the persistence surface the review service needs.
type Store interface {
	GetCard(ctx context.Context, userID string, cardID int64) (*domain.Card, error)
	SaveReview(ctx context.Context, card *domain.Card, log *domain.ReviewLog, now time.Time) error
}

// Service loads, records and persists reviews.
type Service struct {
	store     Store
	scheduler *fsrs.Scheduler
}

// NewService creates a review Service.
func NewService(store Store, scheduler *fsrs.Scheduler) *Service {
	return &Service{store: store, scheduler: scheduler}
}

// Submit processes one review for the user's card. The card update and the
// review log append happen in a single transaction; a concurrent review of
// the same card since it was read surfaces as storage.ErrConflict.
func (s *Service) Submit(ctx context.Context, userID string, cardID int64, rating fsrs.Rating, now time.Time) (*domain.Card, *domain.ReviewLog, error) {
	card, err := s.store.GetCard(ctx, userID, cardID)
	if err != nil {
		return nil, nil, err
	}

	updated, log, err := Record(s.scheduler, *card, rating, now)
	if err != nil {
		return nil, nil, fmt.Errorf("record review for card %d: %w", cardID, err)
	}

	if err := s.store.SaveReview(ctx, &updated, &log, now); err != nil {
		return nil, nil, err
	}
	return &updated, &log, nil
}
