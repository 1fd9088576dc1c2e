package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Dispatcher fans one trigger out to every handler registered for it.
// Several handlers may share a trigger and differentiate purely by their
// state guards; a guard mismatch is a silent no-op, so running them all is
// safe.
type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:   logger,
		handlers: map[string][]Handler{},
	}
}

func (d *Dispatcher) Register(trigger string, h Handler, mws ...Middleware) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[trigger] = append(d.handlers[trigger], Chain(h, mws...))
}

// Dispatch runs every handler for trigger. Handler errors are collected,
// logged and joined; one failing handler does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger string, ev Event) error {
	d.mu.RLock()
	handlers := d.handlers[trigger]
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			d.logger.Warn("dispatch_handler_failed",
				"trigger", trigger,
				"user_id", ev.UserID,
				"error", err.Error(),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
