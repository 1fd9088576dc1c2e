package state

import (
	"context"
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// Machine serializes state operations per user: two concurrent requests for
// the same user observe a total order, while different users proceed on
// independent stripes and never block each other.
type Machine struct {
	store Store
	locks [lockStripes]sync.Mutex

	mirror   map[string]Record
	mirrorMu sync.RWMutex
}

type Option func(*Machine)

// WithMirror enables a process-local read-through cache. The durable store
// stays the source of truth on misses and every write goes through it, but
// a mirror hit is served without revalidation. That assumes this process is
// the only writer for the users it serves; when several processes share one
// durable store, run without the mirror.
func WithMirror() Option {
	return func(m *Machine) {
		m.mirror = map[string]Record{}
	}
}

func NewMachine(store Store, opts ...Option) *Machine {
	m := &Machine{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &m.locks[h.Sum32()%lockStripes]
}

// SetState replaces the user's state label. It does not touch scratch; the
// flow's terminal handler clears the bag explicitly.
func (m *Machine) SetState(ctx context.Context, userID, label string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, _, err := m.load(ctx, userID)
	if err != nil {
		return err
	}
	rec.Label = label
	return m.save(ctx, userID, rec)
}

// GetState returns the current label, "" when idle or unknown.
func (m *Machine) GetState(ctx context.Context, userID string) (string, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, _, err := m.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return rec.Label, nil
}

// Finish returns the user to idle.
func (m *Machine) Finish(ctx context.Context, userID string) error {
	return m.SetState(ctx, userID, "")
}

// MergeScratch shallow-merges partial into the scratch bag,
// last-writer-wins per key.
func (m *Machine) MergeScratch(ctx context.Context, userID string, partial map[string]any) error {
	if len(partial) == 0 {
		return nil
	}
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, _, err := m.load(ctx, userID)
	if err != nil {
		return err
	}
	if rec.Scratch == nil {
		rec.Scratch = make(map[string]any, len(partial))
	}
	for k, v := range partial {
		rec.Scratch[k] = v
	}
	return m.save(ctx, userID, rec)
}

// GetScratch returns a copy of the scratch bag, empty when none exists.
func (m *Machine) GetScratch(ctx context.Context, userID string) (map[string]any, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, _, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(rec.Scratch))
	for k, v := range rec.Scratch {
		out[k] = v
	}
	return out, nil
}

// ClearScratch drops the bag; the state label is untouched. Clearing an
// already-empty bag is a no-op.
func (m *Machine) ClearScratch(ctx context.Context, userID string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, found, err := m.load(ctx, userID)
	if err != nil {
		return err
	}
	if !found || rec.Scratch == nil {
		return nil
	}
	rec.Scratch = nil
	return m.save(ctx, userID, rec)
}

func (m *Machine) load(ctx context.Context, userID string) (Record, bool, error) {
	if m.mirror != nil {
		m.mirrorMu.RLock()
		rec, ok := m.mirror[userID]
		m.mirrorMu.RUnlock()
		if ok {
			return rec, true, nil
		}
	}
	rec, found, err := m.store.Load(ctx, userID)
	if err != nil {
		return Record{}, false, err
	}
	if found && m.mirror != nil {
		m.mirrorMu.Lock()
		m.mirror[userID] = rec
		m.mirrorMu.Unlock()
	}
	return rec, found, nil
}

func (m *Machine) save(ctx context.Context, userID string, rec Record) error {
	if err := m.store.Save(ctx, userID, rec); err != nil {
		return err
	}
	if m.mirror != nil {
		m.mirrorMu.Lock()
		m.mirror[userID] = rec
		m.mirrorMu.Unlock()
	}
	return nil
}
