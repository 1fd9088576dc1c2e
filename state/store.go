// Package state tracks each user's position in a multi-step conversation:
// a current state label plus a scratch bag accumulated while the flow is in
// progress. The store is injected; nothing here lives in package-level
// globals.
package state

import "context"

// Record is one user's conversation state. An empty Label means idle.
type Record struct {
	Label   string
	Scratch map[string]any
}

// Store is the durable backend. Load reports absence via the bool, never an
// error; corrupt rows self-heal to absence.
type Store interface {
	Load(ctx context.Context, userID string) (Record, bool, error)
	Save(ctx context.Context, userID string, rec Record) error
}
