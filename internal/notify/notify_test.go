package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingSink collects delivered messages.
type recordingSink struct {
	mu   sync.Mutex
	got  []Message
	fail bool
}

func (s *recordingSink) Deliver(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("transport down")
	}
	s.got = append(s.got, msg)
	return nil
}

func (s *recordingSink) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.got...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := New(sink, 8)

	for _, body := range []string{"first", "second", "third"} {
		d.Publish(Message{PropertyID: "p1", Body: body})
	}
	d.Close()

	got := sink.messages()
	if len(got) != 3 {
		t.Fatalf("delivered %d messages, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Body != want {
			t.Errorf("message[%d] = %q, want %q", i, got[i].Body, want)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// A sink that blocks until released, so the queue backs up.
	release := make(chan struct{})
	blocking := sinkFunc(func(ctx context.Context, _ Message) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	d := New(blocking, 1)
	// First message occupies the worker, second fills the queue, the rest
	// must be dropped without blocking this goroutine.
	for i := 0; i < 10; i++ {
		d.Publish(Message{PropertyID: "p1", Body: "burst"})
	}
	close(release)
	d.Close()
}

func TestDispatcherToleratesDeliveryFailure(t *testing.T) {
	sink := &recordingSink{fail: true}
	d := New(sink, 4)
	d.Publish(Message{PropertyID: "p1", Body: "doomed"})
	d.Close()

	if got := sink.messages(); len(got) != 0 {
		t.Errorf("delivered %d messages, want 0", len(got))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d := New(&recordingSink{}, 4)
	d.Close()
	d.Close()
}

type sinkFunc func(ctx context.Context, msg Message) error

func (f sinkFunc) Deliver(ctx context.Context, msg Message) error { return f(ctx, msg) }
