package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestConsume_FixedWindow(t *testing.T) {
	clock := newFakeClock()
	l := New("login", 5, time.Minute, WithClock(clock.Now))

	for i := 1; i <= 5; i++ {
		if err := l.Consume("203.0.113.7", 1); err != nil {
			t.Fatalf("Consume #%d error = %v", i, err)
		}
	}

	err := l.Consume("203.0.113.7", 1)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("Consume #6 error = %v, want ErrLimitExceeded", err)
	}
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("error %T is not *ExceededError", err)
	}
	if exceeded.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", exceeded.RetryAfter)
	}
	if exceeded.Limiter != "login" {
		t.Errorf("Limiter = %q, want login", exceeded.Limiter)
	}
}

func TestConsume_StaysExhausted(t *testing.T) {
	clock := newFakeClock()
	l := New("verify", 5, time.Minute, WithClock(clock.Now))

	if err := l.Consume("a", 4); err != nil {
		t.Fatalf("Consume(4) error = %v", err)
	}
	if err := l.Consume("a", 3); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("Consume(3) error = %v, want ErrLimitExceeded", err)
	}
	clock.Advance(30 * time.Second)
	if err := l.Consume("a", 1); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("Consume after rejection error = %v, want ErrLimitExceeded", err)
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestConsume_WindowResets(t *testing.T) {
	clock := newFakeClock()
	l := New("login", 2, time.Minute, WithClock(clock.Now))

	_ = l.Consume("a", 1)
	clock.Advance(10 * time.Second)
	_ = l.Consume("a", 1)
	if err := l.Consume("a", 1); err == nil {
		t.Fatal("third consume should be rejected")
	}

	// The window started at the first consume, not the last.
	clock.Advance(50 * time.Second)
	if err := l.Consume("a", 1); err != nil {
		t.Errorf("Consume after window elapsed error = %v", err)
	}
	if got := l.Remaining("a"); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}
}

func TestConsume_IdentitiesIndependent(t *testing.T) {
	clock := newFakeClock()
	l := New("login", 1, time.Minute, WithClock(clock.Now))

	if err := l.Consume("a", 1); err != nil {
		t.Fatalf("Consume(a) error = %v", err)
	}
	if err := l.Consume("b", 1); err != nil {
		t.Errorf("Consume(b) error = %v, want nil", err)
	}
	if err := l.Consume("a", 1); err == nil {
		t.Error("Consume(a) again should be rejected")
	}
}

func TestConsume_ZeroPointsChargesOne(t *testing.T) {
	l := New("login", 1, time.Minute)
	if err := l.Consume("a", 0); err != nil {
		t.Fatalf("Consume(0) error = %v", err)
	}
	if err := l.Consume("a", 0); err == nil {
		t.Error("second Consume(0) should be rejected")
	}
}

func TestConsume_Concurrent(t *testing.T) {
	l := New("login", 100, time.Hour)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if l.Consume("shared", 1) == nil {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if allowed.Load() != 100 {
		t.Errorf("allowed = %d, want exactly 100", allowed.Load())
	}
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	l := New("login", 5, time.Minute, WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		_ = l.Consume(fmt.Sprintf("old-%d", i), 1)
	}
	clock.Advance(45 * time.Second)
	_ = l.Consume("fresh", 1)
	clock.Advance(30 * time.Second)

	if removed := l.Sweep(); removed != 10 {
		t.Errorf("Sweep() removed %d, want 10", removed)
	}
	if l.Windows() != 1 {
		t.Errorf("Windows() = %d, want 1", l.Windows())
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	l := New("login", 5, time.Millisecond)
	_ = l.Consume("a", 1)

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		l.Run(ctx, 5*time.Millisecond, func(live int) {
			select {
			case swept <- live:
			default:
			}
		})
		close(done)
	}()

	select {
	case live := <-swept:
		if live != 0 {
			t.Errorf("live windows after sweep = %d, want 0", live)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not sweep")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
