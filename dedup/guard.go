// Package dedup suppresses duplicate webhook deliveries. The platform
// redelivers events and users double-click buttons; both are expected
// behavior, so a suppressed call is a silent no-op, not a failure.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sadisms/mm-tools/dispatch"
)

// missingSentinel keys extractions whose path is absent from the event
// body. Absent and present-but-empty stay distinct keys.
const missingSentinel = "<nil>"

// Path is an ordered key path into the inbound event body.
type Path []string

// DefaultPath extracts the interactive-button value most handlers key on.
var DefaultPath = Path{"context", "value"}

type Clock func() time.Time

// Guard tracks the last-fired time per composite key. The check-and-update
// is atomic per key: two racing deliveries inside one cooldown window can
// never both pass.
type Guard struct {
	now Clock

	mu   sync.Mutex
	last map[string]time.Time
}

func New() *Guard {
	return NewWithClock(time.Now)
}

func NewWithClock(now Clock) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{now: now, last: map[string]time.Time{}}
}

// Middleware drops invocations of the wrapped handler that repeat the same
// name + extracted values within cooldown. With no paths given, the
// button-value default applies.
func (g *Guard) Middleware(name string, cooldown time.Duration, paths ...Path) dispatch.Middleware {
	if len(paths) == 0 {
		paths = []Path{DefaultPath}
	}
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, ev dispatch.Event) error {
			if !g.fire(compositeKey(name, ev, paths), cooldown) {
				return nil
			}
			return next(ctx, ev)
		}
	}
}

// compositeKey joins the handler name and extracted values with a NUL
// separator so adjacent components can never run together into another
// handler's key.
func compositeKey(name string, ev dispatch.Event, paths []Path) string {
	var b strings.Builder
	b.WriteString(name)
	for _, path := range paths {
		b.WriteByte(0)
		value, ok := dispatch.Lookup(ev.Body, path...)
		if !ok || value == nil {
			b.WriteString(missingSentinel)
			continue
		}
		fmt.Fprintf(&b, "%v", value)
	}
	return b.String()
}

func (g *Guard) fire(key string, cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if last, ok := g.last[key]; ok && now.Sub(last) < cooldown {
		return false
	}
	g.last[key] = now
	return true
}

// Prune drops entries idle for longer than olderThan, bounding the key map
// on long-lived processes.
func (g *Guard) Prune(olderThan time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := g.now().Add(-olderThan)
	for key, last := range g.last {
		if last.Before(cutoff) {
			delete(g.last, key)
		}
	}
}
