// Package session maintains the client-side study queue: a FIFO of
// upcoming cards that is refilled in the background before it runs dry,
// deduplicated against the server's shifting due set.
package session

import (
	"github.com/grammr/srs/internal/planner"
)

const (
	// DefaultBatchSize is how many cards each fetch asks the planner for.
	DefaultBatchSize = 10
	// DefaultRefillThreshold is the queue length at or below which a
	// background refill is triggered.
	DefaultRefillThreshold = 3
)

// Queue is the session state. It is not safe for concurrent use: all
// mutations are expected to happen on one goroutine (the Runner's), the
// fetchInFlight guard only prevents overlapping fetches being started.
type Queue struct {
	items         []planner.StudyItem
	hasMore       bool
	fetchInFlight bool

	reviewed  int
	remaining int
	total     int

	batchSize int
	threshold int
}

// NewQueue creates an empty queue. Non-positive sizes fall back to the
// defaults.
func NewQueue(batchSize, threshold int) *Queue {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if threshold <= 0 {
		threshold = DefaultRefillThreshold
	}
	return &Queue{hasMore: true, batchSize: batchSize, threshold: threshold}
}

// BatchSize is the configured fetch size.
func (q *Queue) BatchSize() int { return q.batchSize }

// Len returns the number of queued cards.
func (q *Queue) Len() int { return len(q.items) }

// Empty reports whether the session has run out of cards.
func (q *Queue) Empty() bool { return len(q.items) == 0 }

// HasMore reports whether the server is believed to still hold cards
// beyond the current queue.
func (q *Queue) HasMore() bool { return q.hasMore }

// Current returns the front card without removing it.
func (q *Queue) Current() (planner.StudyItem, bool) {
	if len(q.items) == 0 {
		return planner.StudyItem{}, false
	}
	return q.items[0], true
}

// Progress returns the session counters.
func (q *Queue) Progress() planner.Progress {
	return planner.Progress{Reviewed: q.reviewed, Remaining: q.remaining, Total: q.total}
}

// ApplyInitialBatch replaces the queue wholesale and resets the counters.
func (q *Queue) ApplyInitialBatch(batch *planner.Batch) {
	q.items = append(q.items[:0:0], batch.Cards...)
	q.reviewed = 0
	q.remaining = batch.Progress.Remaining
	q.total = batch.Progress.Total
	q.fetchInFlight = false
	// A short first page means the server is already exhausted.
	q.hasMore = len(batch.Cards) >= q.batchSize
}

// NeedsRefill reports whether a background fetch should be started: the
// queue is low but not empty, no fetch is already in flight, and the
// server is believed to have more.
func (q *Queue) NeedsRefill() bool {
	n := len(q.items)
	return n > 0 && n <= q.threshold && !q.fetchInFlight && q.hasMore
}

// BeginFetch marks a fetch as in flight. It returns false if a fetch is
// already running, keeping refills non-overlapping.
func (q *Queue) BeginFetch() bool {
	if q.fetchInFlight {
		return false
	}
	q.fetchInFlight = true
	return true
}

// ApplyFetchResult merges a background batch into the queue, dropping any
// card already queued. Returns how many genuinely new cards arrived; zero
// new cards marks the server as exhausted so the queue stops polling.
func (q *Queue) ApplyFetchResult(items []planner.StudyItem) int {
	q.fetchInFlight = false

	queued := make(map[int64]struct{}, len(q.items))
	for _, item := range q.items {
		queued[item.Card.ID] = struct{}{}
	}

	added := 0
	for _, item := range items {
		if _, dup := queued[item.Card.ID]; dup {
			continue
		}
		queued[item.Card.ID] = struct{}{}
		q.items = append(q.items, item)
		added++
	}

	if added == 0 || len(items) < q.batchSize {
		q.hasMore = false
	}
	return added
}

// FetchFailed clears the in-flight guard and nothing else: the queue and
// hasMore stay untouched so a later threshold crossing can retry.
func (q *Queue) FetchFailed() {
	q.fetchInFlight = false
}

// ConfirmReview removes the front card after the server confirmed the
// review was persisted. It refuses to pop any card other than the front
// one, so a failed submission never loses the card being rated.
func (q *Queue) ConfirmReview(cardID int64) bool {
	if len(q.items) == 0 || q.items[0].Card.ID != cardID {
		return false
	}
	q.items = q.items[1:]
	q.reviewed++
	if q.remaining > 0 {
		q.remaining--
	}
	return true
}

// Reset clears the session for a "study more" restart.
func (q *Queue) Reset() {
	q.items = nil
	q.reviewed = 0
	q.remaining = 0
	q.total = 0
	q.hasMore = true
	q.fetchInFlight = false
}
