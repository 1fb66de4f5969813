// Package rollup materializes a stream's events into a queryable StreamStateView.
//
// The fold is synchronous and does not verify hashes or signatures; callers run
// events.CheckEvent (or use package stream) before events reach this layer.
package rollup

import (
	"fmt"
	"log/slog"

	"github.com/towns-protocol/towns-sub022/compliance"
	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/streamid"
)

type options struct {
	logger *slog.Logger
	mode   compliance.Mode
}

// Option configures a StreamStateView.
type Option func(*options)

// WithLogger sets the logger used for skipped events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCompliance selects how unknown payload kinds are handled:
// compliance.Permissive skips and logs them, compliance.Strict fails the batch.
func WithCompliance(mode compliance.Mode) Option {
	return func(o *options) { o.mode = mode }
}

// StreamStateView is the materialized state of one stream.
//
// The exported maps are owned by the view; treat them as read-only. A view is
// not safe for concurrent use: callers serialize AddEvents and reads per
// stream (package stream does this with a mutex).
type StreamStateView struct {
	StreamID string
	// Kind is KindUnspecified until an inception event is processed.
	Kind          streamid.Kind
	ParentSpaceID string

	// Timeline holds events in processing order, Events the same events by hash.
	Timeline []*events.FullEvent
	Events   map[string]*events.FullEvent

	JoinedUsers  map[string]struct{}
	InvitedUsers map[string]struct{}
	Messages     map[string]*events.FullEvent

	SpaceChannels map[string]struct{}

	UserJoinedStreams  map[string]struct{}
	UserInvitedStreams map[string]struct{}

	LeafEventHashes map[string]struct{}

	// referenced holds every hash named in some processed event's prevEvents.
	referenced map[string]struct{}
	logger     *slog.Logger
	mode       compliance.Mode
}

// NewStreamStateView returns an empty view for streamID.
//
// If inception is non-nil it must carry an Inception payload for streamID whose
// kind matches the id prefix; the view's kind is fixed from it immediately. The
// inception event itself is not added; pass it to AddEvents as usual.
func NewStreamStateView(streamID string, inception *events.FullEvent, opts ...Option) (*StreamStateView, error) {
	o := options{logger: slog.Default().With("component", "rollup")}
	for _, opt := range opts {
		opt(&o)
	}
	if !streamid.IsValid(streamID) {
		return nil, events.NewError(events.KindBadEvent, "", fmt.Sprintf("invalid stream id %q", streamID))
	}
	v := &StreamStateView{
		StreamID:           streamID,
		Events:             make(map[string]*events.FullEvent),
		JoinedUsers:        make(map[string]struct{}),
		InvitedUsers:       make(map[string]struct{}),
		Messages:           make(map[string]*events.FullEvent),
		SpaceChannels:      make(map[string]struct{}),
		UserJoinedStreams:  make(map[string]struct{}),
		UserInvitedStreams: make(map[string]struct{}),
		LeafEventHashes:    make(map[string]struct{}),
		referenced:         make(map[string]struct{}),
		logger:             o.logger.With("stream_id", streamID),
		mode:               o.mode,
	}
	if inception != nil {
		p, ok := inception.Base.Payload.(events.Inception)
		if !ok {
			return nil, events.NewError(events.KindBadEvent, inception.Hash, "first event is not inception "+streamID)
		}
		if err := v.fixKind(inception.Hash, p); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// fixKind validates p against the view and records its kind.
func (v *StreamStateView) fixKind(hash string, p events.Inception) error {
	if p.StreamID != v.StreamID {
		return events.NewError(events.KindBadEvent, hash,
			fmt.Sprintf("non-matching stream id in inception %s != %s", v.StreamID, p.StreamID))
	}
	idKind, _ := streamid.KindOf(v.StreamID)
	if p.StreamKind != idKind {
		return events.NewError(events.KindBadEvent, hash,
			fmt.Sprintf("inception kind %s does not match stream id kind %s", p.StreamKind, idKind))
	}
	v.Kind = p.StreamKind
	if p.StreamKind == streamid.KindChannel {
		v.ParentSpaceID = p.SpaceID
	}
	return nil
}

// AddEvents folds batch into the view in the order given.
//
// An event whose hash was already processed is skipped. Processing stops at the
// first failing event, which is returned with its index and hash; events before
// it stay applied and no aggregate notification is sent. On success exactly one
// StreamInitialized (init) or StreamUpdated (!init) notification is sent with the
// whole batch. observer may be nil.
func (v *StreamStateView) AddEvents(batch []*events.FullEvent, observer Observer, init bool) error {
	if observer == nil {
		observer = NopObserver{}
	}
	for i, e := range batch {
		if err := v.addEvent(e, observer); err != nil {
			var hash string
			if e != nil {
				hash = e.Hash
			}
			return events.AtIndex(err, i, hash)
		}
	}
	v.logger.Debug("applied events", "count", len(batch), "init", init, "leaves", len(v.LeafEventHashes))
	if init {
		observer.StreamInitialized(v.StreamID, v.Kind, batch)
	} else {
		observer.StreamUpdated(v.StreamID, v.Kind, batch)
	}
	return nil
}

func (v *StreamStateView) addEvent(e *events.FullEvent, observer Observer) error {
	if e == nil {
		return events.NewError(events.KindBadEvent, "", "nil event")
	}
	if _, seen := v.Events[e.Hash]; seen {
		return nil
	}
	if e.Base.Payload == nil {
		return events.NewError(events.KindBadPayload, e.Hash, "event has no payload")
	}
	if err := v.applyPayload(e, observer); err != nil {
		return err
	}
	v.record(e)
	return nil
}

// record adds e to the indexes and updates the leaf set.
func (v *StreamStateView) record(e *events.FullEvent) {
	v.Timeline = append(v.Timeline, e)
	v.Events[e.Hash] = e
	for _, prev := range e.Base.PrevEvents {
		v.referenced[prev] = struct{}{}
		delete(v.LeafEventHashes, prev)
	}
	if _, ok := v.referenced[e.Hash]; !ok {
		v.LeafEventHashes[e.Hash] = struct{}{}
	}
}

// applyPayload performs the payload's state change. It returns an error only
// before mutating anything.
func (v *StreamStateView) applyPayload(e *events.FullEvent, observer Observer) error {
	switch p := e.Base.Payload.(type) {
	case events.Inception:
		if v.Kind != streamid.KindUnspecified {
			if p.StreamID != v.StreamID || p.StreamKind != v.Kind {
				return events.NewError(events.KindBadEvent, e.Hash, "conflicting inception for "+v.StreamID)
			}
			return nil
		}
		if err := v.fixKind(e.Hash, p); err != nil {
			return err
		}
		observer.StreamInception(v.StreamID, e, p)

	case events.Invite:
		v.invite(p.UserID, observer)
	case events.Join:
		v.join(p.UserID, observer)
	case events.Leave:
		v.leave(p.UserID, observer)

	case events.UserInvited:
		if v.isUserStream() {
			if addTo(v.UserInvitedStreams, p.StreamID) {
				observer.UserInvitedToStream(v.StreamID, p.StreamID)
			}
			return nil
		}
		v.invite(p.EventRef.CreatorAddress, observer)
	case events.UserJoined:
		if v.isUserStream() {
			delete(v.UserInvitedStreams, p.StreamID)
			if addTo(v.UserJoinedStreams, p.StreamID) {
				observer.UserJoinedStream(v.StreamID, p.StreamID)
			}
			return nil
		}
		v.join(p.EventRef.CreatorAddress, observer)
	case events.UserLeft:
		if v.isUserStream() {
			_, wasInvited := v.UserInvitedStreams[p.StreamID]
			delete(v.UserInvitedStreams, p.StreamID)
			if removeFrom(v.UserJoinedStreams, p.StreamID) || wasInvited {
				observer.UserLeftStream(v.StreamID, p.StreamID)
			}
			return nil
		}
		v.leave(p.EventRef.CreatorAddress, observer)

	case events.ChannelCreated:
		if addTo(v.SpaceChannels, p.ChannelID) {
			observer.SpaceNewChannelCreated(v.StreamID, p.ChannelID)
		}
	case events.ChannelDeleted:
		if removeFrom(v.SpaceChannels, p.ChannelID) {
			observer.SpaceChannelDeleted(v.StreamID, p.ChannelID)
		}

	case events.Message:
		v.Messages[e.Hash] = e
		observer.ChannelNewMessage(v.StreamID, e)

	case events.UnknownPayload:
		if v.mode == compliance.Strict {
			return events.NewError(events.KindUnknownPayloadKind, e.Hash, fmt.Sprintf("unknown payload kind %q", p.Type))
		}
		v.logger.Warn("skipping event with unknown payload kind", "hash", e.Hash, "kind", p.Type)

	default:
		return events.NewError(events.KindUnknownPayloadKind, e.Hash, fmt.Sprintf("unhandled payload type %T", p))
	}
	return nil
}

func (v *StreamStateView) isUserStream() bool {
	if v.Kind != streamid.KindUnspecified {
		return v.Kind == streamid.KindUser
	}
	return streamid.IsUser(v.StreamID)
}

func (v *StreamStateView) invite(userID string, observer Observer) {
	if addTo(v.InvitedUsers, userID) {
		observer.StreamNewUserInvited(v.StreamID, userID)
	}
}

func (v *StreamStateView) join(userID string, observer Observer) {
	delete(v.InvitedUsers, userID)
	if addTo(v.JoinedUsers, userID) {
		observer.StreamNewUserJoined(v.StreamID, userID)
	}
}

func (v *StreamStateView) leave(userID string, observer Observer) {
	_, wasInvited := v.InvitedUsers[userID]
	delete(v.InvitedUsers, userID)
	if removeFrom(v.JoinedUsers, userID) || wasInvited {
		observer.StreamUserLeft(v.StreamID, userID)
	}
}

func addTo(set map[string]struct{}, key string) bool {
	if _, ok := set[key]; ok {
		return false
	}
	set[key] = struct{}{}
	return true
}

func removeFrom(set map[string]struct{}, key string) bool {
	if _, ok := set[key]; !ok {
		return false
	}
	delete(set, key)
	return true
}

// Leaves returns the current leaf hashes, sorted.
func (v *StreamStateView) Leaves() []string { return sortedKeys(v.LeafEventHashes) }

func (v *StreamStateView) Joined() []string         { return sortedKeys(v.JoinedUsers) }
func (v *StreamStateView) Invited() []string        { return sortedKeys(v.InvitedUsers) }
func (v *StreamStateView) Channels() []string       { return sortedKeys(v.SpaceChannels) }
func (v *StreamStateView) JoinedStreams() []string  { return sortedKeys(v.UserJoinedStreams) }
func (v *StreamStateView) InvitedStreams() []string { return sortedKeys(v.UserInvitedStreams) }

// MessageList returns the messages in processing order.
func (v *StreamStateView) MessageList() []*events.FullEvent {
	out := make([]*events.FullEvent, 0, len(v.Messages))
	for _, e := range v.Timeline {
		if _, ok := v.Messages[e.Hash]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether an event with hash was processed.
func (v *StreamStateView) Has(hash string) bool {
	_, ok := v.Events[hash]
	return ok
}

// RollupStream builds a fresh view of streamID from events.
//
// The inception event is located anywhere in events; the batch is then applied
// with init set, so observer receives one StreamInitialized notification.
func RollupStream(streamID string, list []*events.FullEvent, observer Observer, opts ...Option) (*StreamStateView, error) {
	if len(list) == 0 {
		return nil, events.NewError(events.KindBadEvent, "", "stream is empty "+streamID)
	}
	var inception *events.FullEvent
	for _, e := range list {
		if e == nil {
			continue
		}
		if _, ok := e.Base.Payload.(events.Inception); ok {
			inception = e
			break
		}
	}
	if inception == nil {
		return nil, events.NewError(events.KindBadEvent, "", "no inception event in "+streamID)
	}
	view, err := NewStreamStateView(streamID, inception, opts...)
	if err != nil {
		return nil, err
	}
	if err := view.AddEvents(list, observer, true); err != nil {
		return view, err
	}
	return view, nil
}
