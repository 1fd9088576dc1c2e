package codec

import "encoding/json"

// StateField is the decoded form of the JSON wrapper carried in a dialog's
// "state" string: a session id for the server-side bag plus an optional
// embedded context payload for fully stateless recovery.
type StateField struct {
	SessionID string
	Payload   map[string]any
}

type stateFieldWire struct {
	SessionID string `json:"session_id,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

func EncodeStateField(sessionID string, payload map[string]any) (string, error) {
	wire := stateFieldWire{SessionID: sessionID}
	if len(payload) > 0 {
		encoded, err := Encode(payload)
		if err != nil {
			return "", err
		}
		wire.Payload = encoded
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeStateField parses a state string. Non-JSON input or a corrupt
// embedded payload yields (zero, false); handlers treat that as "no
// context".
func DecodeStateField(s string) (StateField, bool) {
	if s == "" {
		return StateField{}, false
	}
	var wire stateFieldWire
	if err := json.Unmarshal([]byte(s), &wire); err != nil {
		return StateField{}, false
	}
	out := StateField{SessionID: wire.SessionID}
	if wire.Payload != "" {
		payload, ok := DecodeMap(wire.Payload)
		if !ok {
			return StateField{}, false
		}
		out.Payload = payload
	}
	return out, true
}
