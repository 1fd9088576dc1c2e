package codec

import (
	"reflect"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := map[string]any{
		"action":  "confirm_order",
		"attempt": int64(3),
		"price":   float64(12.5),
		"done":    false,
		"tags":    []any{"alpha", int64(2), nil},
		"nested": map[string]any{
			"channel_id": "ch-100",
			"raw":        []byte{0x01, 0x02},
		},
	}

	encoded, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, ok := Decode(encoded)
	if !ok {
		t.Fatalf("Decode() ok = false")
	}
	if !reflect.DeepEqual(decoded, payload) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", decoded, payload)
	}
}

func TestDecodePreservesByteLeaves(t *testing.T) {
	encoded, err := Encode(map[string]any{
		"raw": []byte{0x00, 0x01, 0xfe, 0xff},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, ok := DecodeMap(encoded)
	if !ok {
		t.Fatalf("DecodeMap() ok = false")
	}
	raw, isBytes := decoded["raw"].([]byte)
	if !isBytes {
		t.Fatalf("raw decoded as %T, want []byte", decoded["raw"])
	}
	if !reflect.DeepEqual(raw, []byte{0x00, 0x01, 0xfe, 0xff}) {
		t.Fatalf("raw = %#v", raw)
	}
}

func TestDecodeNormalizesScalars(t *testing.T) {
	encoded, err := Encode(map[string]any{
		"small":   int8(7),
		"wide":    int64(1 << 40),
		"unsign":  uint16(65535),
		"ratio32": float32(1.5),
		"nested":  []any{int32(-9), []any{uint8(3)}},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, ok := DecodeMap(encoded)
	if !ok {
		t.Fatalf("DecodeMap() ok = false")
	}
	want := map[string]any{
		"small":   int64(7),
		"wide":    int64(1 << 40),
		"unsign":  int64(65535),
		"ratio32": float64(1.5),
		"nested":  []any{int64(-9), []any{int64(3)}},
	}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("normalized payload mismatch:\n got  %#v\n want %#v", decoded, want)
	}
}

func TestEncodeAlphabetIsTransportSafe(t *testing.T) {
	encoded, err := Encode(map[string]any{"key": strings.Repeat("value ", 200)})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for _, r := range encoded {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("encoded output contains unsafe character %q", r)
		}
	}
}

func TestDecodeFailsClosed(t *testing.T) {
	valid, err := Encode(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"not deflate", "aGVsbG8"},
		{"truncated", valid[:len(valid)/2]},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := Decode(tc.input); ok {
				t.Fatalf("Decode(%q) ok = true, want false", tc.input)
			}
		})
	}
}

func TestDecodeMapRejectsScalarPayload(t *testing.T) {
	encoded, err := Encode("just a string")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, ok := DecodeMap(encoded); ok {
		t.Fatalf("DecodeMap() ok = true for scalar payload")
	}
}

func TestStateFieldRoundTrip(t *testing.T) {
	payload := map[string]any{"step": "email", "retries": int64(1)}
	raw, err := EncodeStateField("sess-42", payload)
	if err != nil {
		t.Fatalf("EncodeStateField() error = %v", err)
	}

	field, ok := DecodeStateField(raw)
	if !ok {
		t.Fatalf("DecodeStateField() ok = false")
	}
	if field.SessionID != "sess-42" {
		t.Fatalf("SessionID = %q, want sess-42", field.SessionID)
	}
	if !reflect.DeepEqual(field.Payload, payload) {
		t.Fatalf("Payload = %#v, want %#v", field.Payload, payload)
	}
}

func TestStateFieldWithoutPayload(t *testing.T) {
	raw, err := EncodeStateField("sess-9", nil)
	if err != nil {
		t.Fatalf("EncodeStateField() error = %v", err)
	}
	field, ok := DecodeStateField(raw)
	if !ok {
		t.Fatalf("DecodeStateField() ok = false")
	}
	if field.SessionID != "sess-9" || field.Payload != nil {
		t.Fatalf("DecodeStateField() = %+v", field)
	}
}

func TestDecodeStateFieldFailsClosed(t *testing.T) {
	for _, input := range []string{"", "not json", `{"session_id":"x","payload":"garbage"}`} {
		if _, ok := DecodeStateField(input); ok {
			t.Fatalf("DecodeStateField(%q) ok = true, want false", input)
		}
	}
}
