package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grammr/srs/internal/fsrs"
	"github.com/grammr/srs/internal/planner"
)

// Client is the network surface the runner drives: fetching study batches
// and submitting reviews.
type Client interface {
	FetchBatch(ctx context.Context, limit int) (*planner.Batch, error)
	SubmitReview(ctx context.Context, cardID int64, rating fsrs.Rating) error
}

type fetchResult struct {
	batch *planner.Batch
	err   error
}

// Runner drives a Queue against a Client. All queue mutations happen on
// the caller's goroutine: background fetches run concurrently but their
// results are parked on a channel and merged at the next call, so the
// queue itself is never touched from two goroutines.
type Runner struct {
	queue  *Queue
	client Client
	logger *slog.Logger

	results chan fetchResult
	wg      sync.WaitGroup
}

// NewRunner creates a runner around an empty queue.
func NewRunner(client Client, batchSize, threshold int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		queue:   NewQueue(batchSize, threshold),
		client:  client,
		logger:  logger,
		results: make(chan fetchResult, 1),
	}
}

// Queue exposes the underlying state for inspection.
func (r *Runner) Queue() *Queue { return r.queue }

// Start performs the blocking initial load. A failure here is retryable:
// the queue stays empty and Start can simply be called again.
func (r *Runner) Start(ctx context.Context) error {
	batch, err := r.client.FetchBatch(ctx, r.queue.BatchSize())
	if err != nil {
		return fmt.Errorf("initial batch load: %w", err)
	}
	r.queue.ApplyInitialBatch(batch)
	r.maybeRefill(ctx)
	return nil
}

// Current merges any finished background fetch and returns the card the
// user should review next.
func (r *Runner) Current(ctx context.Context) (planner.StudyItem, bool) {
	r.merge()
	r.maybeRefill(ctx)
	return r.queue.Current()
}

// Progress returns the session counters.
func (r *Runner) Progress() planner.Progress {
	r.merge()
	return r.queue.Progress()
}

// Review submits a rating for the front card. The card is only removed
// from the queue once the server confirms the review was persisted; on
// error the queue is left untouched.
func (r *Runner) Review(ctx context.Context, rating fsrs.Rating) error {
	r.merge()

	item, ok := r.queue.Current()
	if !ok {
		return fmt.Errorf("review: session queue is empty")
	}
	if err := r.client.SubmitReview(ctx, item.Card.ID, rating); err != nil {
		return fmt.Errorf("submit review for card %d: %w", item.Card.ID, err)
	}

	r.queue.ConfirmReview(item.Card.ID)
	r.maybeRefill(ctx)
	return nil
}

// StudyMore resets the session counters and reloads the initial batch.
func (r *Runner) StudyMore(ctx context.Context) error {
	r.Flush()
	r.queue.Reset()
	return r.Start(ctx)
}

// Flush waits for any in-flight background fetch and merges its result.
func (r *Runner) Flush() {
	r.wg.Wait()
	r.merge()
}

// merge applies any parked background fetch result. Failures are logged
// and swallowed; the queue stays intact and a later threshold crossing
// retries.
func (r *Runner) merge() {
	for {
		select {
		case res := <-r.results:
			if res.err != nil {
				r.queue.FetchFailed()
				r.logger.Warn("background prefetch failed", "error", res.err)
				continue
			}
			added := r.queue.ApplyFetchResult(res.batch.Cards)
			r.logger.Debug("background prefetch merged",
				"fetched", len(res.batch.Cards), "added", added, "queued", r.queue.Len())
		default:
			return
		}
	}
}

// maybeRefill starts a background fetch when the queue is running low.
func (r *Runner) maybeRefill(ctx context.Context) {
	if !r.queue.NeedsRefill() || !r.queue.BeginFetch() {
		return
	}

	limit := r.queue.BatchSize()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		batch, err := r.client.FetchBatch(ctx, limit)
		r.results <- fetchResult{batch: batch, err: err}
	}()
}
