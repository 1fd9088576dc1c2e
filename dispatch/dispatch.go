// Package dispatch is the middleware chain the webhook layer runs inbound
// events through. Stages wrap a handler and may short-circuit before the
// handler body runs (state gating, dedup, session binding).
package dispatch

import "context"

// Event is one inbound webhook delivery. Body layout is owned by the
// platform webhook; this core only walks it by key paths.
type Event struct {
	UserID string
	Body   map[string]any
}

type Handler func(ctx context.Context, ev Event) error

type Middleware func(Handler) Handler

// Chain wraps h so the first middleware listed runs outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Lookup walks body along path, descending only through string-keyed maps.
func Lookup(body map[string]any, path ...string) (any, bool) {
	var current any = body
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// LookupString is Lookup for the common string leaf case.
func LookupString(body map[string]any, path ...string) (string, bool) {
	raw, ok := Lookup(body, path...)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
