package stream

import (
	"fmt"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/streamid"
)

// CreateUserEvents returns the inception event of signer's own user stream.
func CreateUserEvents(signer events.Signer, opts ...events.MakeOption) ([]*events.FullEvent, error) {
	userStreamID := streamid.MakeUserStreamID(signer.Address())
	inception, err := events.MakeEvent(signer, events.Inception{
		StreamID:   userStreamID,
		StreamKind: streamid.KindUser,
	}, nil, opts...)
	if err != nil {
		return nil, err
	}
	return []*events.FullEvent{inception}, nil
}

// CreateSpaceEvents returns the inception of spaceID followed by signer's join.
func CreateSpaceEvents(signer events.Signer, spaceID string, opts ...events.MakeOption) ([]*events.FullEvent, error) {
	if !streamid.IsSpace(spaceID) {
		return nil, events.NewError(events.KindBadEvent, "", fmt.Sprintf("%q is not a space stream id", spaceID))
	}
	return createWithJoin(signer, events.Inception{StreamID: spaceID, StreamKind: streamid.KindSpace}, opts)
}

// CreateChannelEvents returns the inception of channelID, parented to spaceID,
// followed by signer's join.
func CreateChannelEvents(signer events.Signer, spaceID, channelID string, opts ...events.MakeOption) ([]*events.FullEvent, error) {
	if !streamid.IsSpace(spaceID) {
		return nil, events.NewError(events.KindBadEvent, "", fmt.Sprintf("%q is not a space stream id", spaceID))
	}
	if !streamid.IsChannel(channelID) {
		return nil, events.NewError(events.KindBadEvent, "", fmt.Sprintf("%q is not a channel stream id", channelID))
	}
	return createWithJoin(signer, events.Inception{
		StreamID:   channelID,
		StreamKind: streamid.KindChannel,
		SpaceID:    spaceID,
	}, opts)
}

func createWithJoin(signer events.Signer, inception events.Inception, opts []events.MakeOption) ([]*events.FullEvent, error) {
	inc, err := events.MakeEvent(signer, inception, nil, opts...)
	if err != nil {
		return nil, err
	}
	join, err := events.MakeEvent(signer, events.Join{UserID: signer.Address()}, []string{inc.Hash}, opts...)
	if err != nil {
		return nil, err
	}
	return []*events.FullEvent{inc, join}, nil
}

// JoinedStreamEvent builds the derived UserJoined event for signer's own user
// stream, pointing at joinEvent in streamID.
func JoinedStreamEvent(signer events.Signer, userPrevEvents []string, streamID string, joinEvent *events.FullEvent, opts ...events.MakeOption) (*events.FullEvent, error) {
	if joinEvent == nil {
		return nil, events.NewError(events.KindBadEvent, "", "join event is required")
	}
	return events.MakeEvent(signer, events.UserJoined{
		StreamID: streamID,
		EventRef: events.MakeEventRef(streamID, joinEvent),
	}, userPrevEvents, opts...)
}

// ChannelCreatedEvent builds the derived ChannelCreated event for the parent
// space stream, pointing at the channel's inception.
func ChannelCreatedEvent(signer events.Signer, spacePrevEvents []string, channelID string, channelInception *events.FullEvent, opts ...events.MakeOption) (*events.FullEvent, error) {
	if channelInception == nil {
		return nil, events.NewError(events.KindBadEvent, "", "channel inception is required")
	}
	return events.MakeEvent(signer, events.ChannelCreated{
		ChannelID: channelID,
		EventRef:  events.MakeEventRef(channelID, channelInception),
	}, spacePrevEvents, opts...)
}
