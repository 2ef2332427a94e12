package httpserver

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/fp4-go/pkg/cmap"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// IPRateLimiter is a token bucket per client address.
type IPRateLimiter struct {
	limit    rate.Limit
	burst    int
	now      func() time.Time
	visitors *cmap.Map[*visitor]
}

// NewIPRateLimiter allows rps requests per second per address with the
// given burst. A burst below 1 is raised to max(1, ceil(rps)).
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = max(1, int(rps+0.999))
	}
	return &IPRateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		visitors: cmap.New[*visitor](),
	}
}

// Allow reports whether a request from ip may proceed.
func (l *IPRateLimiter) Allow(ip string) bool {
	now := l.now()
	v := l.visitors.Compute(ip, func(v *visitor, exists bool) (*visitor, bool) {
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		}
		return v, true
	})
	v.lastSeen.Store(now.UnixNano())
	return v.limiter.AllowN(now, 1)
}

// Len returns the number of tracked addresses.
func (l *IPRateLimiter) Len() int {
	return l.visitors.Count()
}

// Sweep forgets addresses idle for longer than idle.
func (l *IPRateLimiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()
	return l.visitors.DeleteIf(func(_ string, v *visitor) bool {
		return v.lastSeen.Load() < cutoff
	})
}

// Run sweeps every interval until ctx is cancelled. onSweep, when non-nil,
// receives the number of live addresses after each pass.
func (l *IPRateLimiter) Run(ctx context.Context, interval, idle time.Duration, onSweep func(live int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idle)
			if onSweep != nil {
				onSweep(l.Len())
			}
		}
	}
}
