package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/codehive-dev/codehive/internal/domain"
)

// Envelope is the decoded frame header plus the original bytes, so a
// handler can re-decode Raw into the concrete struct for its type
// without the codec needing to know every payload shape up front.
type Envelope struct {
	Type      string
	Timestamp int64
	DeviceID  string
	Raw       []byte
}

type probe struct {
	Type      json.RawMessage `json:"type"`
	Timestamp int64           `json:"timestamp"`
	DeviceID  string          `json:"deviceId"`
}

// Decode parses a frame's header. The payload must be a JSON object
// whose "type" field is a string; anything else yields
// domain.ErrInvalidFrame and the caller should reply with an error
// frame rather than close the connection (spec §4.A).
func Decode(data []byte) (*Envelope, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.ErrInvalidFrame
	}
	if len(p.Type) == 0 {
		return nil, domain.ErrInvalidFrame
	}
	var typeStr string
	if err := json.Unmarshal(p.Type, &typeStr); err != nil {
		return nil, domain.ErrInvalidFrame
	}
	if typeStr == "" {
		return nil, domain.ErrInvalidFrame
	}

	return &Envelope{
		Type:      typeStr,
		Timestamp: p.Timestamp,
		DeviceID:  p.DeviceID,
		Raw:       data,
	}, nil
}

// Unmarshal re-decodes the envelope's raw bytes into a concrete
// typed payload, e.g. a *JoinRoomMsg.
func (e *Envelope) Unmarshal(dst any) error {
	if err := json.Unmarshal(e.Raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFrame, err)
	}
	return nil
}

// Encode marshals a typed payload (one of the structs in messages.go)
// into the flat wire frame.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
