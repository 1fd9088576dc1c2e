package session

import (
	"context"

	"github.com/Sadisms/mm-tools/codec"
	"github.com/Sadisms/mm-tools/dispatch"
)

type ctxKey struct{}

// FromContext returns the session bound by BindDialog or BindAction.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// BindDialog binds a session for dialog-submission events, whose "state"
// string carries the session id (possibly inside the JSON state wrapper).
// A missing or unreadable state starts a fresh session.
func BindDialog(store Store) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, ev dispatch.Event) error {
			sessionID := ""
			if raw, ok := dispatch.LookupString(ev.Body, "state"); ok {
				if field, decoded := codec.DecodeStateField(raw); decoded {
					sessionID = field.SessionID
				} else {
					sessionID = raw
				}
			}
			return next(withSession(ctx, Bind(store, ev.UserID, sessionID)), ev)
		}
	}
}

// BindAction binds a session for button/select callbacks, whose session id
// travels in the action context.
func BindAction(store Store) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, ev dispatch.Event) error {
			sessionID, _ := dispatch.LookupString(ev.Body, "context", "session_id")
			return next(withSession(ctx, Bind(store, ev.UserID, sessionID)), ev)
		}
	}
}
