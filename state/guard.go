package state

import (
	"context"
	"strings"

	"github.com/Sadisms/mm-tools/dispatch"
)

// OnState gates a handler on the caller's current conversation state. A
// non-matching state skips the handler silently, so several handlers can
// share one trigger and differentiate purely by state.
//
// Labels form a ":"-delimited hierarchy and guards match by prefix: a guard
// for "signup" fires on "signup" and "signup:email" but not on "signupx".
// The empty guard label matches only the idle state.
func OnState(m *Machine, labels ...string) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, ev dispatch.Event) error {
			current, err := m.GetState(ctx, ev.UserID)
			if err != nil {
				return err
			}
			if !Matches(current, labels) {
				return nil
			}
			return next(ctx, ev)
		}
	}
}

// Matches reports whether current satisfies any of the guard labels.
func Matches(current string, labels []string) bool {
	for _, label := range labels {
		if label == "" {
			if current == "" {
				return true
			}
			continue
		}
		if current == label || strings.HasPrefix(current, label+":") {
			return true
		}
	}
	return false
}
