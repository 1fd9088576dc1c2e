package migrate

import "context"

// Record is one persisted message whose props embed a callback URL.
// CallbackBaseURL holds the URL found at persist time and is how a batch
// decides whether the record already points at the new endpoint.
type Record struct {
	MessageID       string
	Props           map[string]any
	Message         string
	CallbackBaseURL string
}

// RecordStore is the durable index of messages to revisit. Get reports
// absence via the bool; Delete is idempotent.
type RecordStore interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, messageID string) (Record, bool, error)
	Delete(ctx context.Context, messageID string) error
	List(ctx context.Context) ([]Record, error)
}
