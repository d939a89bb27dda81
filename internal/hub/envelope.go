/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package hub

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Seednode/saboteur/internal/store"
)

var validate = validator.New()

// Envelope is the shape of every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(outbound{Type: typ, Payload: payload})
}

const eventRoomCreated = "roomCreated"

type roomCreatedPayload struct {
	RoomID string `json:"roomId"`
}

type joinPayload struct {
	RoomID string `json:"roomId" validate:"required,alphanum,max=16"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Hat    string `json:"hat" validate:"max=64"`
	Skin   string `json:"skin" validate:"max=64"`
}

func (p *joinPayload) normalize() {
	p.RoomID = store.Normalize(p.RoomID)
}

type movePayload struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type killPayload struct {
	TargetID string `json:"targetId" validate:"required"`
}

type sabotagePayload struct {
	Kind string `json:"kind" validate:"required"`
}

type fixPayload struct {
	Side string `json:"side" validate:"omitempty,oneof=left right"`
}

type chatPayload struct {
	Text string `json:"text" validate:"max=4096"`
}

type votePayload struct {
	TargetID *string `json:"targetId"`
}

// decode unmarshals a payload into v and validates it. A missing payload
// decodes as an empty object.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if n, ok := v.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// decodeRelay keeps a signaling envelope opaque apart from its recipient.
func decodeRelay(raw json.RawMessage) (string, map[string]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope == nil {
		return "", nil, ErrMalformed
	}

	var to string
	if err := json.Unmarshal(envelope["to"], &to); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Var(to, "required"); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return to, envelope, nil
}
