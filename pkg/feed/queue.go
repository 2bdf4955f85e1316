// Package feed moves market data into a chart. Producers on any goroutine
// publish events to a Queue; the goroutine that owns the chart drains it and
// applies each event through a Store.
package feed

import (
	"sync"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/logger"
)

const defaultQueueSize = 256

// Batch is a block of candles with their volume bars
type Batch struct {
	Candles []core.Candle
	Volumes []core.HistogramPoint
}

// Empty reports whether the batch holds no candles
func (b Batch) Empty() bool {
	return len(b.Candles) == 0
}

// Kline is a streamed update of the latest candle and its traded volume
type Kline struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Candle returns the OHLC part of the update
func (k Kline) Candle() core.Candle {
	return core.Candle{Time: k.OpenTime, Open: k.Open, High: k.High, Low: k.Low, Close: k.Close}
}

// EventKind tells which field of an Event is set
type EventKind int

const (
	EventReplace EventKind = iota
	EventKline
	EventPrepend
	EventLoadFailed
)

func (k EventKind) String() string {
	switch k {
	case EventReplace:
		return "replace"
	case EventKline:
		return "kline"
	case EventPrepend:
		return "prepend"
	default:
		return "load_failed"
	}
}

// Event is one unit of work for the chart goroutine
type Event struct {
	Kind  EventKind
	Batch Batch
	Kline Kline
	Err   error
}

// Queue is a bounded event buffer safe for concurrent publishers
type Queue struct {
	mu     sync.RWMutex
	events chan Event
	closed bool
	log    logger.Logger
}

// NewQueue creates a queue holding up to size pending events
func NewQueue(log logger.Logger, size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{events: make(chan Event, size), log: log}
}

// Publish enqueues an event without blocking. Events are dropped when the
// queue is full or closed.
func (q *Queue) Publish(event Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.events <- event:
		return true
	default:
		q.log.WithField("event", event.Kind.String()).Warn("feed queue full, event dropped")
		return false
	}
}

// Drain hands every pending event to apply and returns how many it saw.
// It never waits for new events.
func (q *Queue) Drain(apply func(Event)) int {
	count := 0
	for {
		select {
		case event, ok := <-q.events:
			if !ok {
				return count
			}
			apply(event)
			count++
		default:
			return count
		}
	}
}

// Events exposes the queue for a select loop on the chart goroutine
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Close stops accepting events. Pending events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.events)
	}
}
