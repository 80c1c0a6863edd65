// Package notify dispatches fire-and-forget notifications through a bounded
// in-process queue. Publication never blocks the calling operation and a
// delivery failure never propagates back to it.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ownshare/ownshare/internal/metrics"
)

// Message is one notification addressed to a property's owners.
type Message struct {
	PropertyID string
	AuthorID   string
	Body       string
}

// Sink delivers a notification to its transport.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// LogSink writes notifications to the structured log. It is the default
// sink when no delivery transport is configured.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, msg Message) error {
	slog.Info("notification",
		"property_id", msg.PropertyID,
		"author_id", msg.AuthorID,
		"body", msg.Body,
	)
	return nil
}

// deliverTimeout bounds a single delivery attempt.
const deliverTimeout = 10 * time.Second

// Dispatcher consumes a bounded queue on a single worker goroutine.
type Dispatcher struct {
	sink Sink
	ch   chan Message

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a dispatcher with the given queue size.
func New(sink Sink, queueSize int) *Dispatcher {
	d := &Dispatcher{
		sink: sink,
		ch:   make(chan Message, queueSize),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues a notification without blocking. When the queue is full
// the message is dropped and logged; the caller is never slowed down or
// failed.
func (d *Dispatcher) Publish(msg Message) {
	select {
	case d.ch <- msg:
	default:
		metrics.NotificationsDropped.Inc()
		slog.Warn("notification queue full, dropping message",
			"property_id", msg.PropertyID,
			"author_id", msg.AuthorID,
		)
	}
}

// Close stops the worker after draining the queued messages.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.ch)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := d.sink.Deliver(ctx, msg); err != nil {
			// At-most-once, best-effort: log and move on.
			slog.Warn("notification delivery failed",
				"property_id", msg.PropertyID,
				"error", err,
			)
		}
		cancel()
	}
}
