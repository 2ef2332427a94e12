package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/fp4-go/pkg/cmap"
)

// ErrLimitExceeded is matched by every error Consume returns on rejection.
var ErrLimitExceeded = errors.New("ratelimit: limit exceeded")

// ExceededError reports a rejected Consume and when the window reopens.
type ExceededError struct {
	Limiter    string
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("ratelimit: %s limit exceeded, retry after %s", e.Limiter, e.RetryAfter)
}

// Is makes errors.Is(err, ErrLimitExceeded) succeed.
func (e *ExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}

type window struct {
	start    time.Time
	consumed int
}

// Limiter is a fixed-window counter per identity.
type Limiter struct {
	name     string
	limit    int
	duration time.Duration
	now      func() time.Time
	windows  *cmap.Map[window]
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithShards sets the number of map shards (power of two).
func WithShards(n int) Option {
	return func(l *Limiter) { l.windows = cmap.NewWithShards[window](n) }
}

// New creates a limiter allowing limit points per identity per duration.
func New(name string, limit int, duration time.Duration, opts ...Option) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if duration <= 0 {
		duration = time.Minute
	}
	l := &Limiter{
		name:     name,
		limit:    limit,
		duration: duration,
		now:      time.Now,
		windows:  cmap.New[window](),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the limiter name.
func (l *Limiter) Name() string { return l.name }

// Limit returns the points allowed per window.
func (l *Limiter) Limit() int { return l.limit }

// Duration returns the window length.
func (l *Limiter) Duration() time.Duration { return l.duration }

// Consume charges points to identity's current window.
//
// It returns an *ExceededError when the window total goes over the limit.
// Points below 1 are charged as 1.
func (l *Limiter) Consume(identity string, points int) error {
	if points < 1 {
		points = 1
	}
	now := l.now()

	w := l.windows.Compute(identity, func(w window, exists bool) (window, bool) {
		if !exists || !now.Before(w.start.Add(l.duration)) {
			w = window{start: now}
		}
		w.consumed += points
		return w, true
	})

	if w.consumed > l.limit {
		return &ExceededError{
			Limiter:    l.name,
			RetryAfter: w.start.Add(l.duration).Sub(now),
		}
	}
	return nil
}

// Remaining returns the points left in identity's current window.
func (l *Limiter) Remaining(identity string) int {
	w, ok := l.windows.Get(identity)
	if !ok || !l.now().Before(w.start.Add(l.duration)) {
		return l.limit
	}
	if w.consumed >= l.limit {
		return 0
	}
	return l.limit - w.consumed
}

// Reset forgets identity's window.
func (l *Limiter) Reset(identity string) {
	l.windows.Delete(identity)
}

// Windows returns the number of tracked identities, expired or not.
func (l *Limiter) Windows() int {
	return l.windows.Count()
}

// Sweep removes expired windows and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()
	return l.windows.DeleteIf(func(_ string, w window) bool {
		return !now.Before(w.start.Add(l.duration))
	})
}

// Run sweeps every interval until ctx is cancelled.
// onSweep, when non-nil, is called after each pass with the live window count.
func (l *Limiter) Run(ctx context.Context, interval time.Duration, onSweep func(live int)) {
	if interval <= 0 {
		interval = l.duration
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
			if onSweep != nil {
				onSweep(l.Windows())
			}
		}
	}
}
