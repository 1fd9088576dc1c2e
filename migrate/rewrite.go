// Package migrate keeps previously-delivered interactive UI working after
// the bot's public callback endpoint moves. It rewrites the callback URLs
// embedded in persisted message props and re-submits the updated messages.
package migrate

import (
	"sort"
	"strings"
)

// urlKey is the reserved props field whose values are callback URLs.
const urlKey = "url"

// basePrefixSegments is how much of a "/"-split callback URL belongs to the
// endpoint: scheme, the empty segment after "//", host, and the three
// leading path segments the integration mount contributes. Everything after
// that is the action path and is preserved across a rewrite.
const basePrefixSegments = 6

// FindURL walks node depth-first and returns the first string value stored
// under the reserved url key. Maps are visited in sorted key order so the
// result is deterministic.
func FindURL(node any) (string, bool) {
	switch v := node.(type) {
	case map[string]any:
		if raw, ok := v[urlKey]; ok {
			if s, isString := raw.(string); isString {
				return s, true
			}
		}
		for _, k := range sortedKeys(v) {
			if k == urlKey {
				continue
			}
			if found, ok := FindURL(v[k]); ok {
				return found, true
			}
		}
	case []any:
		for _, item := range v {
			if found, ok := FindURL(item); ok {
				return found, true
			}
		}
	}
	return "", false
}

// RewriteURLs replaces, in place, the endpoint prefix of every url value
// under node with newBase, keeping the trailing action segments. It recurses
// through nested maps and sequences, including sequences nested inside
// sequences.
func RewriteURLs(node any, newBase string) {
	newBase = strings.TrimRight(strings.TrimSpace(newBase), "/")
	if newBase == "" {
		return
	}
	rewrite(node, newBase)
}

func rewrite(node any, newBase string) {
	switch v := node.(type) {
	case map[string]any:
		for k, item := range v {
			if k == urlKey {
				if s, ok := item.(string); ok {
					v[k] = rewriteURL(s, newBase)
					continue
				}
			}
			rewrite(item, newBase)
		}
	case []any:
		for _, item := range v {
			rewrite(item, newBase)
		}
	}
}

func rewriteURL(raw, newBase string) string {
	parts := strings.Split(raw, "/")
	if len(parts) <= basePrefixSegments {
		return newBase
	}
	return newBase + "/" + strings.Join(parts[basePrefixSegments:], "/")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
