// Package events implements construction and verification of signed stream events.
//
// An event body (BaseEvent) is canonicalized, hashed with keccak-256 and signed
// with a recoverable secp256k1 signature, so anyone holding a FullEvent can
// recompute its hash and recover its creator without a key directory.
package events

import (
	"encoding/json"
)

// BaseEvent is the signed body of an event.
//
// PrevEvents is empty only for an inception event.
type BaseEvent struct {
	CreatorAddress string
	Salt           string
	PrevEvents     []string
	Payload        Payload
}

// FullEvent is a BaseEvent with its hash and signature.
//
// Hash equals HashEvent(Base) and Signature recovers to Base.CreatorAddress;
// CheckEvent enforces both.
type FullEvent struct {
	Hash      string    `json:"hash"`
	Signature string    `json:"signature"`
	Base      BaseEvent `json:"base"`
}

// EventRef is a compact pointer to a FullEvent, used inside derived payloads.
type EventRef struct {
	StreamID       string `json:"streamId"`
	Hash           string `json:"hash"`
	Signature      string `json:"signature"`
	CreatorAddress string `json:"creatorAddress"`
}

type baseEventJSON struct {
	CreatorAddress string          `json:"creatorAddress"`
	Salt           string          `json:"salt"`
	PrevEvents     []string        `json:"prevEvents"`
	Payload        json.RawMessage `json:"payload"`
}

func (b BaseEvent) MarshalJSON() ([]byte, error) {
	payload, err := marshalPayload(b.Payload)
	if err != nil {
		return nil, err
	}
	prev := b.PrevEvents
	if prev == nil {
		prev = []string{}
	}
	return json.Marshal(baseEventJSON{
		CreatorAddress: b.CreatorAddress,
		Salt:           b.Salt,
		PrevEvents:     prev,
		Payload:        payload,
	})
}

func (b *BaseEvent) UnmarshalJSON(data []byte) error {
	var raw baseEventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return WrapError(KindEncoding, "", "decode event base", err)
	}
	if len(raw.Payload) == 0 {
		return NewError(KindBadPayload, "", "payload is required")
	}
	payload, err := unmarshalPayload(raw.Payload)
	if err != nil {
		return err
	}
	*b = BaseEvent{
		CreatorAddress: raw.CreatorAddress,
		Salt:           raw.Salt,
		PrevEvents:     raw.PrevEvents,
		Payload:        payload,
	}
	return nil
}

// MakeEventRef projects event into an EventRef. No verification is performed.
func MakeEventRef(streamID string, event *FullEvent) EventRef {
	return EventRef{
		StreamID:       streamID,
		Hash:           event.Hash,
		Signature:      event.Signature,
		CreatorAddress: event.Base.CreatorAddress,
	}
}

// PayloadKindOf returns the payload kind of event, or "" if it has no payload.
func PayloadKindOf(event *FullEvent) PayloadKind {
	if event == nil || event.Base.Payload == nil {
		return ""
	}
	return event.Base.Payload.Kind()
}
