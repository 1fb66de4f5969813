package events

import (
	"encoding/json"
	"fmt"

	"github.com/towns-protocol/towns-sub022/streamid"
)

// PayloadKind is the discriminant of a Payload.
type PayloadKind string

const (
	PayloadInception      PayloadKind = "inception"
	PayloadInvite         PayloadKind = "invite"
	PayloadJoin           PayloadKind = "join"
	PayloadLeave          PayloadKind = "leave"
	PayloadUserInvited    PayloadKind = "user-invited"
	PayloadUserJoined     PayloadKind = "user-joined"
	PayloadUserLeft       PayloadKind = "user-left"
	PayloadChannelCreated PayloadKind = "channel-created"
	PayloadChannelDeleted PayloadKind = "channel-deleted"
	PayloadMessage        PayloadKind = "message"
)

// IsDerived reports whether payloads of kind k carry an EventRef to the event
// that caused them.
func IsDerived(k PayloadKind) bool {
	switch k {
	case PayloadUserInvited, PayloadUserJoined, PayloadUserLeft, PayloadChannelCreated, PayloadChannelDeleted:
		return true
	default:
		return false
	}
}

// Payload is the closed set of event bodies. The unexported marker keeps the set
// closed to this package; consumers switch on the concrete type.
type Payload interface {
	Kind() PayloadKind
	isPayload()
}

// Inception is the first event of a stream and fixes its kind.
// SpaceID is set only for channel streams.
type Inception struct {
	StreamID   string        `json:"streamId"`
	StreamKind streamid.Kind `json:"streamKind"`
	SpaceID    string        `json:"spaceId,omitempty"`
}

type Invite struct {
	UserID string `json:"userId"`
}

type Join struct {
	UserID string `json:"userId"`
}

type Leave struct {
	UserID string `json:"userId"`
}

// UserInvited is written into a user's own stream after the user is invited to StreamID.
type UserInvited struct {
	StreamID string   `json:"streamId"`
	EventRef EventRef `json:"eventRef"`
}

// UserJoined is written into a user's own stream after the user joins StreamID.
type UserJoined struct {
	StreamID string   `json:"streamId"`
	EventRef EventRef `json:"eventRef"`
}

// UserLeft is written into a user's own stream after the user leaves StreamID.
type UserLeft struct {
	StreamID string   `json:"streamId"`
	EventRef EventRef `json:"eventRef"`
}

// ChannelCreated is written into a space stream; EventRef points at the
// channel's inception event.
type ChannelCreated struct {
	ChannelID string   `json:"channelId"`
	EventRef  EventRef `json:"eventRef"`
}

type ChannelDeleted struct {
	ChannelID string   `json:"channelId"`
	EventRef  EventRef `json:"eventRef"`
}

type Message struct {
	Text string `json:"text"`
}

// UnknownPayload holds a payload whose kind this build does not know.
// Raw is kept verbatim so the event still hashes to its stored hash.
// It is produced by decoding only; MakeEvent rejects it.
type UnknownPayload struct {
	Type string
	Raw  json.RawMessage
}

func (Inception) Kind() PayloadKind      { return PayloadInception }
func (Invite) Kind() PayloadKind         { return PayloadInvite }
func (Join) Kind() PayloadKind           { return PayloadJoin }
func (Leave) Kind() PayloadKind          { return PayloadLeave }
func (UserInvited) Kind() PayloadKind    { return PayloadUserInvited }
func (UserJoined) Kind() PayloadKind     { return PayloadUserJoined }
func (UserLeft) Kind() PayloadKind       { return PayloadUserLeft }
func (ChannelCreated) Kind() PayloadKind { return PayloadChannelCreated }
func (ChannelDeleted) Kind() PayloadKind { return PayloadChannelDeleted }
func (Message) Kind() PayloadKind        { return PayloadMessage }
func (p UnknownPayload) Kind() PayloadKind {
	return PayloadKind(p.Type)
}

func (Inception) isPayload()      {}
func (Invite) isPayload()         {}
func (Join) isPayload()           {}
func (Leave) isPayload()          {}
func (UserInvited) isPayload()    {}
func (UserJoined) isPayload()     {}
func (UserLeft) isPayload()       {}
func (ChannelCreated) isPayload() {}
func (ChannelDeleted) isPayload() {}
func (Message) isPayload()        {}
func (UnknownPayload) isPayload() {}

// marshalPayload encodes p as a JSON object with its "kind" discriminant.
func marshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, NewError(KindBadPayload, "", "payload is required")
	}
	if u, ok := p.(UnknownPayload); ok {
		if !json.Valid(u.Raw) {
			return nil, NewError(KindEncoding, "", "unknown payload holds invalid JSON")
		}
		return u.Raw, nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, WrapError(KindEncoding, "", "encode payload", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, WrapError(KindEncoding, "", "encode payload", err)
	}
	kind, err := json.Marshal(string(p.Kind()))
	if err != nil {
		return nil, WrapError(KindEncoding, "", "encode payload kind", err)
	}
	fields["kind"] = kind
	return json.Marshal(fields)
}

func unmarshalPayload(b []byte) (Payload, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, WrapError(KindEncoding, "", "decode payload", err)
	}
	switch PayloadKind(head.Kind) {
	case PayloadInception:
		return decodeAs[Inception](b)
	case PayloadInvite:
		return decodeAs[Invite](b)
	case PayloadJoin:
		return decodeAs[Join](b)
	case PayloadLeave:
		return decodeAs[Leave](b)
	case PayloadUserInvited:
		return decodeAs[UserInvited](b)
	case PayloadUserJoined:
		return decodeAs[UserJoined](b)
	case PayloadUserLeft:
		return decodeAs[UserLeft](b)
	case PayloadChannelCreated:
		return decodeAs[ChannelCreated](b)
	case PayloadChannelDeleted:
		return decodeAs[ChannelDeleted](b)
	case PayloadMessage:
		return decodeAs[Message](b)
	case "":
		return nil, NewError(KindBadPayload, "", "payload kind is missing")
	default:
		return UnknownPayload{Type: head.Kind, Raw: append(json.RawMessage(nil), b...)}, nil
	}
}

func decodeAs[T Payload](b []byte) (Payload, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, WrapError(KindEncoding, "", fmt.Sprintf("decode %s payload", v.Kind()), err)
	}
	return v, nil
}
