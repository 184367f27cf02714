package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type failSink struct {
	mu    sync.Mutex
	count int
}

func (f *failSink) Emit(ctx context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return errors.New("fail")
}

type memDLQ struct {
	mu     sync.Mutex
	stored []Event
}

func (q *memDLQ) Store(_ context.Context, e Event, attempts int, lastErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stored = append(q.stored, e)
	return nil
}

type okSink struct {
	mu  sync.Mutex
	got []Event
}

func (s *okSink) Emit(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return nil
}

func TestRetryThenDLQ(t *testing.T) {
	s := &failSink{}
	dlq := &memDLQ{}
	d := NewDispatcher(Config{Retry: RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}}, dlq, s)
	d.Dispatch(context.Background(), Event{Name: "x"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if s.count != 2 {
		t.Fatalf("attempts=%d", s.count)
	}
	if len(dlq.stored) != 1 || dlq.stored[0].Name != "x" {
		t.Fatalf("dlq=%v", dlq.stored)
	}
}

func TestDispatchFansOut(t *testing.T) {
	a, b := &okSink{}, &okSink{}
	d := NewDispatcher(Config{}, nil, a, b)
	d.Dispatch(context.Background(), Event{Name: "snapshot.copy.requested"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("fan-out a=%d b=%d", len(a.got), len(b.got))
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	s := &failSink{}
	dlq := &memDLQ{}
	d := NewDispatcher(Config{Retry: RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour}}, dlq, s)
	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, Event{Name: "x"})
	cancel()
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if s.count != 1 {
		t.Fatalf("attempts=%d", s.count)
	}
	if len(dlq.stored) != 1 {
		t.Fatalf("expected event in dlq")
	}
}

type gateSink struct {
	release chan struct{}
	okSink
}

func (s *gateSink) Emit(ctx context.Context, e Event) error {
	<-s.release
	return s.okSink.Emit(ctx, e)
}

func TestDispatchAfterTimedOutWait(t *testing.T) {
	s := &gateSink{release: make(chan struct{})}
	d := NewDispatcher(Config{}, nil, s)

	d.Dispatch(context.Background(), Event{Name: "first"})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("wait = %v, want deadline exceeded", err)
	}

	d.Dispatch(context.Background(), Event{Name: "second"})
	close(s.release)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(s.got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(s.got))
	}

	d.Dispatch(context.Background(), Event{Name: "third"})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(s.got) != 3 {
		t.Fatalf("delivered %d events, want 3", len(s.got))
	}
}

func TestWaitWithoutDispatch(t *testing.T) {
	d := NewDispatcher(Config{}, nil, &okSink{})
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

type closeSink struct {
	okSink
	closed int
}

func (s *closeSink) Close() error {
	s.closed++
	return nil
}

func TestDispatcherCloseReleasesSinks(t *testing.T) {
	c := &closeSink{}
	d := NewDispatcher(Config{}, nil, c, &okSink{})
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.closed != 1 {
		t.Fatalf("closed = %d", c.closed)
	}
}
