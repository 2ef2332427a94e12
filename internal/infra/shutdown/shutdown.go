package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one component. It should return once ctx is done.
type Hook func(context.Context) error

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	hooks   []Hook
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// NewHandler creates a new shutdown handler.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// OnClose registers a hook for a component with a plain Close method.
func (h *Handler) OnClose(close func() error) {
	h.OnShutdown(func(context.Context) error { return close() })
}

// Wait blocks until a termination signal arrives or ctx is cancelled, then
// runs the hooks. All hook errors are joined.
func (h *Handler) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	return h.Shutdown()
}

// Shutdown runs the hooks once under the handler timeout.
func (h *Handler) Shutdown() error {
	var err error
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]Hook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if hookErr := hooks[i](ctx); hookErr != nil {
				errs = append(errs, hookErr)
			}
		}
		err = errors.Join(errs...)
		close(h.done)
	})
	return err
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
