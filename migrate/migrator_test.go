package migrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

type fakePlatform struct {
	mu         sync.Mutex
	gone       map[string]bool
	failCheck  map[string]error
	failUpdate map[string]error
	updated    map[string]map[string]any
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		gone:       map[string]bool{},
		failCheck:  map[string]error{},
		failUpdate: map[string]error{},
		updated:    map[string]map[string]any{},
	}
}

func (p *fakePlatform) PostExists(_ context.Context, postID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failCheck[postID]; err != nil {
		return false, err
	}
	return !p.gone[postID], nil
}

func (p *fakePlatform) UpdatePost(_ context.Context, postID, _ string, props map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failUpdate[postID]; err != nil {
		return err
	}
	p.updated[postID] = props
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outcomeFor(t *testing.T, outcomes []Outcome, messageID string) Outcome {
	t.Helper()
	for _, o := range outcomes {
		if o.MessageID == messageID {
			return o
		}
	}
	t.Fatalf("no outcome for %q", messageID)
	return Outcome{}
}

func seedRecord(t *testing.T, store RecordStore, messageID, baseURL string) {
	t.Helper()
	err := store.Put(context.Background(), Record{
		MessageID:       messageID,
		Message:         "pick one",
		CallbackBaseURL: baseURL,
		Props: map[string]any{
			"url": baseURL + "/click",
		},
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func TestRunMigratesAndSkipsAndIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()
	platform := newFakePlatform()

	const oldBase = "https://old.example.com/plugins/bot/hooks"
	const newBase = "https://new.example.com/plugins/bot/hooks"

	seedRecord(t, store, "m-migrate", oldBase)
	seedRecord(t, store, "m-current", newBase)
	seedRecord(t, store, "m-gone", oldBase)
	seedRecord(t, store, "m-fail", oldBase)

	platform.gone["m-gone"] = true
	platform.failUpdate["m-fail"] = errors.New("boom")

	m := NewMigrator(store, platform, discardLogger(), WithWorkers(2))
	outcomes, err := m.Run(ctx, newBase)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcomes) != 4 {
		t.Fatalf("len(outcomes) = %d, want 4", len(outcomes))
	}

	if o := outcomeFor(t, outcomes, "m-migrate"); o.Status != StatusMigrated {
		t.Fatalf("m-migrate status = %q", o.Status)
	}
	if o := outcomeFor(t, outcomes, "m-current"); o.Status != StatusSkippedCurrent {
		t.Fatalf("m-current status = %q", o.Status)
	}
	if o := outcomeFor(t, outcomes, "m-gone"); o.Status != StatusSkippedGone {
		t.Fatalf("m-gone status = %q", o.Status)
	}
	if o := outcomeFor(t, outcomes, "m-fail"); o.Status != StatusFailed || o.Err == nil {
		t.Fatalf("m-fail outcome = %+v", o)
	}

	// The migrated record was re-submitted with the rewritten URL and the
	// stored base advanced.
	props := platform.updated["m-migrate"]
	if props == nil || props["url"] != newBase+"/click" {
		t.Fatalf("updated props = %v", props)
	}
	rec, ok, err := store.Get(ctx, "m-migrate")
	if err != nil || !ok {
		t.Fatalf("Get(m-migrate) = %v, %v", ok, err)
	}
	if rec.CallbackBaseURL != newBase {
		t.Fatalf("CallbackBaseURL = %q, want %q", rec.CallbackBaseURL, newBase)
	}

	// The skipped-current record was never re-submitted.
	if _, touched := platform.updated["m-current"]; touched {
		t.Fatalf("skipped_current record was updated")
	}

	// The gone record was dropped from the store.
	if _, ok, _ := store.Get(ctx, "m-gone"); ok {
		t.Fatalf("gone record survived")
	}

	// The failed record keeps its old base for a retry.
	rec, ok, _ = store.Get(ctx, "m-fail")
	if !ok || rec.CallbackBaseURL != oldBase {
		t.Fatalf("failed record = %+v, ok = %v", rec, ok)
	}
}

func TestRunRequiresNewBase(t *testing.T) {
	m := NewMigrator(NewMemoryRecordStore(), newFakePlatform(), discardLogger())
	if _, err := m.Run(context.Background(), "  "); err == nil {
		t.Fatalf("Run() with empty base did not error")
	}
}

func TestRunEmptyStore(t *testing.T) {
	m := NewMigrator(NewMemoryRecordStore(), newFakePlatform(), discardLogger())
	outcomes, err := m.Run(context.Background(), "https://new.example.com/plugins/bot/hooks")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("len(outcomes) = %d, want 0", len(outcomes))
	}
}

func TestSweepDropsGoneRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRecordStore()
	platform := newFakePlatform()

	const base = "https://example.com/plugins/bot/hooks"
	seedRecord(t, store, "m-alive", base)
	seedRecord(t, store, "m-gone", base)
	seedRecord(t, store, "m-err", base)

	platform.gone["m-gone"] = true
	platform.failCheck["m-err"] = errors.New("timeout")

	m := NewMigrator(store, platform, discardLogger())
	outcomes, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if o := outcomeFor(t, outcomes, "m-alive"); o.Status != StatusAlive {
		t.Fatalf("m-alive status = %q", o.Status)
	}
	if o := outcomeFor(t, outcomes, "m-gone"); o.Status != StatusSkippedGone {
		t.Fatalf("m-gone status = %q", o.Status)
	}
	if o := outcomeFor(t, outcomes, "m-err"); o.Status != StatusFailed {
		t.Fatalf("m-err status = %q", o.Status)
	}

	if _, ok, _ := store.Get(ctx, "m-gone"); ok {
		t.Fatalf("gone record survived sweep")
	}
	if _, ok, _ := store.Get(ctx, "m-alive"); !ok {
		t.Fatalf("alive record dropped by sweep")
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]Outcome{
		{Status: StatusMigrated},
		{Status: StatusMigrated},
		{Status: StatusFailed},
	})
	if got[StatusMigrated] != 2 || got[StatusFailed] != 1 || len(got) != 2 {
		t.Fatalf("Summarize() = %v", got)
	}
}
