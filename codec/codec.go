// Package codec embeds arbitrary structured payloads into short opaque
// strings that survive a round trip through the platform's constrained
// "state" and "context" fields. The pipeline is msgpack, DEFLATE, then the
// URL-safe base64 alphabet, so the result contains no JSON or URL
// delimiters.
package codec

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes payload into a compact transport-safe string. It fails
// only when payload is not expressible in msgpack (channels, funcs, cyclic
// values), which is caller misuse.
func Encode(payload any) (string, error) {
	packed, err := msgpack.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}

	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}
	if _, err := zw.Write(packed); err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode is the inverse of Encode. It fails closed: truncated, corrupt or
// alien input yields (nil, false), never an error. Callers treat absence as
// the common case.
//
// Scalars come back normalized: integers as int64, floats as float64, maps
// as map[string]any. Byte leaves stay []byte.
func Decode(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	zr := flate.NewReader(bytes.NewReader(raw))
	packed, err := io.ReadAll(zr)
	_ = zr.Close()
	if err != nil || len(packed) == 0 {
		return nil, false
	}

	var out any
	if err := msgpack.Unmarshal(packed, &out); err != nil {
		return nil, false
	}
	return normalize(out), true
}

// normalize rewrites decoded scalars onto int64/float64 so round trips are
// predictable regardless of the smallest wire type msgpack picked. Loose
// interface decoding is not an option here: it maps the bin type to string
// and would lose []byte leaves.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// DecodeMap decodes s and asserts the payload is a string-keyed map, the
// shape every embedded context in this system uses.
func DecodeMap(s string) (map[string]any, bool) {
	payload, ok := Decode(s)
	if !ok {
		return nil, false
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	return m, true
}
