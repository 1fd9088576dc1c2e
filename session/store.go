// Package session persists the per-conversation key-value bag across
// otherwise disconnected webhook callbacks. Sessions are keyed by
// (user id, session id); a fresh session id is generated per conversation
// instance so concurrent flows for one user never collide.
package session

import (
	"context"

	"github.com/google/uuid"
)

// Store is the durable backend contract. Get never fails for "not found":
// an absent or corrupt row reads as an empty map, and a corrupt row is
// cleared so the store self-heals.
type Store interface {
	Get(ctx context.Context, userID, sessionID string) (map[string]any, error)
	Set(ctx context.Context, userID, sessionID string, data map[string]any) error
	Clear(ctx context.Context, userID, sessionID string) error
	ClearAll(ctx context.Context, userID string) error
}

func NewSessionID() string {
	return uuid.NewString()
}

// Session is one (user, session) handle bound to a store.
type Session struct {
	UserID    string
	SessionID string

	store Store
}

// Bind attaches a handle; an empty sessionID starts a fresh conversation
// instance.
func Bind(store Store, userID, sessionID string) *Session {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return &Session{UserID: userID, SessionID: sessionID, store: store}
}

func (s *Session) Get(ctx context.Context) (map[string]any, error) {
	return s.store.Get(ctx, s.UserID, s.SessionID)
}

func (s *Session) Set(ctx context.Context, data map[string]any) error {
	return s.store.Set(ctx, s.UserID, s.SessionID, data)
}

func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.UserID, s.SessionID)
}

func (s *Session) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx, s.UserID)
}
