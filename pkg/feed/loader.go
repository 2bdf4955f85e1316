package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"
)

const (
	defaultBatchSize = 500
	defaultThreshold = 50
)

// setupBackoffRetry spaces out retries after failed history requests
func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
	}
}

// HistorySource serves history older than a point in time
type HistorySource interface {
	// CandlesBefore returns up to limit bars opened before end, oldest first
	CandlesBefore(ctx context.Context, end time.Time, limit int) (Batch, error)
}

// Window is the visible time range a loader watches, in unix seconds
type Window interface {
	VisibleRange() (float64, float64)
}

// LazyLoader fetches older history once the visible window nears the
// earliest loaded bar. Requests run in their own goroutine and report back
// through the queue. After a failure no request starts until the backoff
// delay has passed.
type LazyLoader struct {
	source    HistorySource
	batchSize int
	threshold int
	backoff   *backoff.Backoff
	now       func() time.Time

	mu        sync.Mutex
	loading   bool
	exhausted bool
	retryAt   time.Time
}

// NewLazyLoader requests batchSize bars whenever fewer than threshold bars
// remain on the left of the window. Non positive values use 500 and 50.
func NewLazyLoader(source HistorySource, batchSize, threshold int) *LazyLoader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &LazyLoader{
		source:    source,
		batchSize: batchSize,
		threshold: threshold,
		backoff:   setupBackoffRetry(),
		now:       time.Now,
	}
}

// Loading reports whether a request is in flight
func (l *LazyLoader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Exhausted reports whether the source ran out of history
func (l *LazyLoader) Exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exhausted
}

// RetryAt is the earliest time a request may start after a failure
func (l *LazyLoader) RetryAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt
}

// MaybeRequest starts a fetch when the window start is within the threshold
// of the earliest stored bar. It reports whether a request was started.
func (l *LazyLoader) MaybeRequest(ctx context.Context, window Window, store *Store, queue *Queue) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loading || l.exhausted || l.now().Before(l.retryAt) {
		return false
	}
	earliest, ok := store.Earliest()
	if !ok {
		return false
	}

	start, _ := window.VisibleRange()
	margin := store.Interval().Seconds() * float64(l.threshold)
	if start-float64(earliest.Unix()) > margin {
		return false
	}

	end := earliest.Add(-time.Millisecond)
	l.loading = true

	go func() {
		event := Event{Kind: EventPrepend}
		batch, err := l.source.CandlesBefore(ctx, end, l.batchSize)
		if err != nil {
			event = Event{Kind: EventLoadFailed, Err: fmt.Errorf("load history before %s: %w", end.Format(time.RFC3339), err)}
		} else {
			event.Batch = batch
		}

		// a dropped event never reaches Store.Handle
		if !queue.Publish(event) {
			l.FinishFailure()
		}
	}()
	return true
}

// FinishSuccess closes a request. An empty batch marks the source exhausted.
func (l *LazyLoader) FinishSuccess(loadedAny bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loading = false
	l.retryAt = time.Time{}
	l.backoff.Reset()
	if !loadedAny {
		l.exhausted = true
	}
}

// FinishFailure closes a failed request. The next one may start once the
// backoff delay has passed.
func (l *LazyLoader) FinishFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loading = false
	l.retryAt = l.now().Add(l.backoff.Duration())
}
