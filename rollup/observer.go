package rollup

import (
	"sync"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/streamid"
)

// Notification names, as carried by Recorder.
const (
	NotifyStreamInception        = "streamInception"
	NotifyStreamNewUserJoined    = "streamNewUserJoined"
	NotifyStreamNewUserInvited   = "streamNewUserInvited"
	NotifyStreamUserLeft         = "streamUserLeft"
	NotifyUserJoinedStream       = "userJoinedStream"
	NotifyUserInvitedToStream    = "userInvitedToStream"
	NotifyUserLeftStream         = "userLeftStream"
	NotifySpaceNewChannelCreated = "spaceNewChannelCreated"
	NotifySpaceChannelDeleted    = "spaceChannelDeleted"
	NotifyChannelNewMessage      = "channelNewMessage"
	NotifyStreamInitialized      = "streamInitialized"
	NotifyStreamUpdated          = "streamUpdated"
)

// Observer receives rollup notifications. Fine-grained methods fire once per
// actual state change; exactly one of StreamInitialized or StreamUpdated fires
// per successful AddEvents call.
//
// Observers are called synchronously from AddEvents and must not call back
// into the view.
type Observer interface {
	StreamInception(streamID string, event *events.FullEvent, inception events.Inception)
	StreamNewUserJoined(streamID, userID string)
	StreamNewUserInvited(streamID, userID string)
	StreamUserLeft(streamID, userID string)
	UserJoinedStream(userStreamID, streamID string)
	UserInvitedToStream(userStreamID, streamID string)
	UserLeftStream(userStreamID, streamID string)
	SpaceNewChannelCreated(spaceID, channelID string)
	SpaceChannelDeleted(spaceID, channelID string)
	ChannelNewMessage(channelID string, message *events.FullEvent)
	StreamInitialized(streamID string, kind streamid.Kind, batch []*events.FullEvent)
	StreamUpdated(streamID string, kind streamid.Kind, batch []*events.FullEvent)
}

// NopObserver ignores every notification. Embed it to implement a subset.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) StreamInception(string, *events.FullEvent, events.Inception)  {}
func (NopObserver) StreamNewUserJoined(string, string)                           {}
func (NopObserver) StreamNewUserInvited(string, string)                          {}
func (NopObserver) StreamUserLeft(string, string)                                {}
func (NopObserver) UserJoinedStream(string, string)                              {}
func (NopObserver) UserInvitedToStream(string, string)                           {}
func (NopObserver) UserLeftStream(string, string)                                {}
func (NopObserver) SpaceNewChannelCreated(string, string)                        {}
func (NopObserver) SpaceChannelDeleted(string, string)                           {}
func (NopObserver) ChannelNewMessage(string, *events.FullEvent)                  {}
func (NopObserver) StreamInitialized(string, streamid.Kind, []*events.FullEvent) {}
func (NopObserver) StreamUpdated(string, streamid.Kind, []*events.FullEvent)     {}

// Notification is one captured observer call.
//
// Target is the user id, channel id or other stream id the notification is
// about; Event is set for inception and message notifications; Events is set
// for the aggregate notifications.
type Notification struct {
	Name     string
	StreamID string
	Target   string
	Kind     streamid.Kind
	Event    *events.FullEvent
	Events   []*events.FullEvent
}

// Recorder is an Observer that captures notifications in call order.
// It is safe for concurrent use so one Recorder can watch several streams.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

var _ Observer = (*Recorder)(nil)

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Names returns the recorded notification names in call order.
func (r *Recorder) Names() []string {
	ns := r.Notifications()
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name
	}
	return out
}

// Count returns how many notifications named name were recorded.
func (r *Recorder) Count(name string) int {
	c := 0
	for _, n := range r.Notifications() {
		if n.Name == name {
			c++
		}
	}
	return c
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}

func (r *Recorder) StreamInception(streamID string, event *events.FullEvent, inception events.Inception) {
	r.add(Notification{Name: NotifyStreamInception, StreamID: streamID, Kind: inception.StreamKind, Event: event})
}

func (r *Recorder) StreamNewUserJoined(streamID, userID string) {
	r.add(Notification{Name: NotifyStreamNewUserJoined, StreamID: streamID, Target: userID})
}

func (r *Recorder) StreamNewUserInvited(streamID, userID string) {
	r.add(Notification{Name: NotifyStreamNewUserInvited, StreamID: streamID, Target: userID})
}

func (r *Recorder) StreamUserLeft(streamID, userID string) {
	r.add(Notification{Name: NotifyStreamUserLeft, StreamID: streamID, Target: userID})
}

func (r *Recorder) UserJoinedStream(userStreamID, streamID string) {
	r.add(Notification{Name: NotifyUserJoinedStream, StreamID: userStreamID, Target: streamID})
}

func (r *Recorder) UserInvitedToStream(userStreamID, streamID string) {
	r.add(Notification{Name: NotifyUserInvitedToStream, StreamID: userStreamID, Target: streamID})
}

func (r *Recorder) UserLeftStream(userStreamID, streamID string) {
	r.add(Notification{Name: NotifyUserLeftStream, StreamID: userStreamID, Target: streamID})
}

func (r *Recorder) SpaceNewChannelCreated(spaceID, channelID string) {
	r.add(Notification{Name: NotifySpaceNewChannelCreated, StreamID: spaceID, Target: channelID})
}

func (r *Recorder) SpaceChannelDeleted(spaceID, channelID string) {
	r.add(Notification{Name: NotifySpaceChannelDeleted, StreamID: spaceID, Target: channelID})
}

func (r *Recorder) ChannelNewMessage(channelID string, message *events.FullEvent) {
	r.add(Notification{Name: NotifyChannelNewMessage, StreamID: channelID, Event: message})
}

func (r *Recorder) StreamInitialized(streamID string, kind streamid.Kind, batch []*events.FullEvent) {
	r.add(Notification{Name: NotifyStreamInitialized, StreamID: streamID, Kind: kind, Events: batch})
}

func (r *Recorder) StreamUpdated(streamID string, kind streamid.Kind, batch []*events.FullEvent) {
	r.add(Notification{Name: NotifyStreamUpdated, StreamID: streamID, Kind: kind, Events: batch})
}
