// Package ratelimit provides fixed-window rate limiting keyed by identity.
//
// A window opens on the first Consume for an identity and lasts for the
// configured duration. Every Consume adds its points to the window, including
// rejected ones, so an exhausted identity stays rejected until the window
// ends. Expired windows are dropped lazily on the next Consume and in bulk
// by Sweep.
//
// Usage:
//
//	l := ratelimit.New("login", 5, time.Minute)
//	if err := l.Consume(clientIP, 1); errors.Is(err, ratelimit.ErrLimitExceeded) {
//		// reject
//	}
package ratelimit
