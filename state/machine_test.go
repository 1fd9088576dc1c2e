package state

import (
	"context"
	"testing"
)

func TestSetStateIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStore())

	for i := 0; i < 2; i++ {
		if err := m.SetState(ctx, "u1", "signup:email"); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
	}
	label, err := m.GetState(ctx, "u1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if label != "signup:email" {
		t.Fatalf("GetState() = %q, want signup:email", label)
	}
}

func TestGetStateUnknownUserIsIdle(t *testing.T) {
	m := NewMachine(NewMemoryStore())
	label, err := m.GetState(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if label != "" {
		t.Fatalf("GetState() = %q, want empty", label)
	}
}

func TestFinishKeepsScratch(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStore())

	if err := m.SetState(ctx, "u1", "signup"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := m.MergeScratch(ctx, "u1", map[string]any{"email": "a@b"}); err != nil {
		t.Fatalf("MergeScratch() error = %v", err)
	}
	if err := m.Finish(ctx, "u1"); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	label, err := m.GetState(ctx, "u1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if label != "" {
		t.Fatalf("GetState() after Finish = %q, want empty", label)
	}
	scratch, err := m.GetScratch(ctx, "u1")
	if err != nil {
		t.Fatalf("GetScratch() error = %v", err)
	}
	if scratch["email"] != "a@b" {
		t.Fatalf("scratch lost after Finish: %v", scratch)
	}
}

func TestMergeScratchLastWriterWins(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStore())

	if err := m.MergeScratch(ctx, "u1", map[string]any{"a": 1, "b": 1}); err != nil {
		t.Fatalf("MergeScratch() error = %v", err)
	}
	if err := m.MergeScratch(ctx, "u1", map[string]any{"b": 2, "c": 3}); err != nil {
		t.Fatalf("MergeScratch() error = %v", err)
	}

	scratch, err := m.GetScratch(ctx, "u1")
	if err != nil {
		t.Fatalf("GetScratch() error = %v", err)
	}
	if scratch["a"] != 1 || scratch["b"] != 2 || scratch["c"] != 3 {
		t.Fatalf("merged scratch = %v", scratch)
	}
}

func TestScratchIsolationBetweenUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStore())

	if err := m.MergeScratch(ctx, "u1", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("MergeScratch() error = %v", err)
	}
	scratch, err := m.GetScratch(ctx, "u2")
	if err != nil {
		t.Fatalf("GetScratch() error = %v", err)
	}
	if len(scratch) != 0 {
		t.Fatalf("u2 scratch = %v, want empty", scratch)
	}
}

func TestClearScratchEmptyBagNoop(t *testing.T) {
	ctx := context.Background()
	m := NewMachine(NewMemoryStore())

	if err := m.ClearScratch(ctx, "nobody"); err != nil {
		t.Fatalf("ClearScratch() error = %v", err)
	}

	if err := m.SetState(ctx, "u1", "checkout"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := m.ClearScratch(ctx, "u1"); err != nil {
		t.Fatalf("ClearScratch() error = %v", err)
	}
	label, err := m.GetState(ctx, "u1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if label != "checkout" {
		t.Fatalf("ClearScratch touched label: %q", label)
	}
}

func TestMirrorServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewMachine(store, WithMirror())

	if err := m.SetState(ctx, "u1", "signup"); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	// Mutate the backing store directly; the mirror should still answer.
	if err := store.Save(ctx, "u1", Record{Label: "other"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	label, err := m.GetState(ctx, "u1")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if label != "signup" {
		t.Fatalf("mirror read = %q, want signup", label)
	}
}
