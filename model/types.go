package model

import (
	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/rollup"
)

// MessageSummary is one message of a stream.
type MessageSummary struct {
	Hash    string `json:"hash" yaml:"hash"`
	Creator string `json:"creator" yaml:"creator"`
	Text    string `json:"text" yaml:"text"`
}

// StreamSummary is the serializable projection of a rollup.StreamStateView.
// Every list is sorted, except Messages which follows processing order.
type StreamSummary struct {
	StreamID           string           `json:"streamId" yaml:"streamId"`
	Kind               string           `json:"kind" yaml:"kind"`
	ParentSpaceID      string           `json:"parentSpaceId,omitempty" yaml:"parentSpaceId,omitempty"`
	EventCount         int              `json:"eventCount" yaml:"eventCount"`
	JoinedUsers        []string         `json:"joinedUsers" yaml:"joinedUsers"`
	InvitedUsers       []string         `json:"invitedUsers" yaml:"invitedUsers"`
	SpaceChannels      []string         `json:"spaceChannels,omitempty" yaml:"spaceChannels,omitempty"`
	UserJoinedStreams  []string         `json:"userJoinedStreams,omitempty" yaml:"userJoinedStreams,omitempty"`
	UserInvitedStreams []string         `json:"userInvitedStreams,omitempty" yaml:"userInvitedStreams,omitempty"`
	Messages           []MessageSummary `json:"messages" yaml:"messages"`
	LeafEventHashes    []string         `json:"leafEventHashes" yaml:"leafEventHashes"`
}

// SummarizeView builds a StreamSummary from v.
func SummarizeView(v *rollup.StreamStateView) StreamSummary {
	s := StreamSummary{
		StreamID:           v.StreamID,
		Kind:               v.Kind.String(),
		ParentSpaceID:      v.ParentSpaceID,
		EventCount:         len(v.Timeline),
		JoinedUsers:        v.Joined(),
		InvitedUsers:       v.Invited(),
		SpaceChannels:      v.Channels(),
		UserJoinedStreams:  v.JoinedStreams(),
		UserInvitedStreams: v.InvitedStreams(),
		Messages:           []MessageSummary{},
		LeafEventHashes:    v.Leaves(),
	}
	for _, e := range v.MessageList() {
		m, _ := e.Base.Payload.(events.Message)
		s.Messages = append(s.Messages, MessageSummary{Hash: e.Hash, Creator: e.Base.CreatorAddress, Text: m.Text})
	}
	return s
}

// CheckReport is the result of verifying a batch of events.
type CheckReport struct {
	Mode   string      `json:"mode" yaml:"mode"`
	Events int         `json:"events" yaml:"events"`
	OK     bool        `json:"ok" yaml:"ok"`
	Error  *CodedError `json:"error,omitempty" yaml:"error,omitempty"`
}

// StoredEvent reports where an event was written.
type StoredEvent struct {
	CID  string `json:"cid" yaml:"cid"`
	Hash string `json:"hash" yaml:"hash"`
}
