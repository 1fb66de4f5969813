package stream_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/keys"
	"github.com/towns-protocol/towns-sub022/rollup"
	"github.com/towns-protocol/towns-sub022/stream"
	"github.com/towns-protocol/towns-sub022/streamid"
)

func testWallet(t *testing.T, name string) *keys.Wallet {
	t.Helper()
	w, err := keys.GenerateWallet(keys.NewSeededReader([]byte("stream:" + name)))
	require.NoError(t, err)
	return w
}

func TestCreateSpaceAndApply(t *testing.T) {
	ctx := context.Background()
	alice := testWallet(t, "alice")
	spaceID := streamid.MakeSpaceStreamID("s1")

	initial, err := stream.CreateSpaceEvents(alice, spaceID)
	require.NoError(t, err)
	require.Len(t, initial, 2)
	require.Equal(t, []string{initial[0].Hash}, initial[1].Base.PrevEvents)

	rec := &rollup.Recorder{}
	s, err := stream.New(ctx, spaceID, stream.StreamAndCookie{Events: initial, SyncCookie: "c1"}, stream.WithObserver(rec))
	require.NoError(t, err)
	require.Equal(t, "c1", s.SyncCookie())
	require.Equal(t, []string{initial[1].Hash}, s.LeafEventHashes())
	require.Equal(t, 1, rec.Count(rollup.NotifyStreamInitialized))

	msg, err := s.MakeEvent(alice, events.Message{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, []string{initial[1].Hash}, msg.Base.PrevEvents)

	require.NoError(t, s.Apply(ctx, stream.StreamAndCookie{
		Events:             []*events.FullEvent{msg},
		SyncCookie:         "c2",
		OriginalSyncCookie: "c1",
	}))
	require.Equal(t, "c2", s.SyncCookie())
	require.Equal(t, []string{msg.Hash}, s.LeafEventHashes())
	require.Equal(t, 1, rec.Count(rollup.NotifyStreamUpdated))

	s.View(func(v *rollup.StreamStateView) {
		require.Equal(t, []string{alice.Address()}, v.Joined())
		require.Len(t, v.Messages, 1)
	})
}

func TestApplyRejectsStaleCookie(t *testing.T) {
	ctx := context.Background()
	alice := testWallet(t, "alice")
	spaceID := streamid.MakeSpaceStreamID("s1")
	initial, err := stream.CreateSpaceEvents(alice, spaceID)
	require.NoError(t, err)
	s, err := stream.New(ctx, spaceID, stream.StreamAndCookie{Events: initial, SyncCookie: "c1"})
	require.NoError(t, err)

	msg, err := s.MakeEvent(alice, events.Message{Text: "x"})
	require.NoError(t, err)
	err = s.Apply(ctx, stream.StreamAndCookie{Events: []*events.FullEvent{msg}, SyncCookie: "c3", OriginalSyncCookie: "c2"})
	require.ErrorIs(t, err, stream.ErrSyncCookieMismatch)
	require.Equal(t, "c1", s.SyncCookie())
	s.View(func(v *rollup.StreamStateView) {
		require.False(t, v.Has(msg.Hash))
	})
}

func TestApplyRejectsTamperedEvents(t *testing.T) {
	ctx := context.Background()
	alice := testWallet(t, "alice")
	spaceID := streamid.MakeSpaceStreamID("s1")
	initial, err := stream.CreateSpaceEvents(alice, spaceID)
	require.NoError(t, err)
	s, err := stream.New(ctx, spaceID, stream.StreamAndCookie{Events: initial, SyncCookie: "c1"})
	require.NoError(t, err)

	msg, err := s.MakeEvent(alice, events.Message{Text: "x"})
	require.NoError(t, err)
	forged := *msg
	forged.Base.Payload = events.Message{Text: "y"}

	err = s.Apply(ctx, stream.StreamAndCookie{Events: []*events.FullEvent{&forged}, SyncCookie: "c2", OriginalSyncCookie: "c1"})
	require.True(t, events.IsKind(err, events.KindHashMismatch), "got %v", err)
	require.Equal(t, "c1", s.SyncCookie())
}

func TestNewRejectsForgedInitialEvents(t *testing.T) {
	alice := testWallet(t, "alice")
	bob := testWallet(t, "bob")
	spaceID := streamid.MakeSpaceStreamID("s1")
	initial, err := stream.CreateSpaceEvents(alice, spaceID)
	require.NoError(t, err)
	initial[1].Base.CreatorAddress = bob.Address()

	_, err = stream.New(context.Background(), spaceID, stream.StreamAndCookie{Events: initial})
	require.Error(t, err)
	var se *events.Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, 1, se.Index)
}

func TestCreateChannelLinksSpace(t *testing.T) {
	ctx := context.Background()
	alice := testWallet(t, "alice")
	spaceID := streamid.MakeSpaceStreamID("s1")
	channelID := streamid.MakeChannelStreamID("c1")

	spaceEvents, err := stream.CreateSpaceEvents(alice, spaceID)
	require.NoError(t, err)
	space, err := stream.New(ctx, spaceID, stream.StreamAndCookie{Events: spaceEvents, SyncCookie: "s1"})
	require.NoError(t, err)

	channelEvents, err := stream.CreateChannelEvents(alice, spaceID, channelID)
	require.NoError(t, err)
	channel, err := stream.New(ctx, channelID, stream.StreamAndCookie{Events: channelEvents, SyncCookie: "k1"})
	require.NoError(t, err)
	channel.View(func(v *rollup.StreamStateView) {
		require.Equal(t, spaceID, v.ParentSpaceID)
		require.Equal(t, streamid.KindChannel, v.Kind)
	})

	created, err := stream.ChannelCreatedEvent(alice, space.LeafEventHashes(), channelID, channelEvents[0])
	require.NoError(t, err)
	require.NoError(t, space.Apply(ctx, stream.StreamAndCookie{Events: []*events.FullEvent{created}, SyncCookie: "s2", OriginalSyncCookie: "s1"}))
	space.View(func(v *rollup.StreamStateView) {
		require.Equal(t, []string{channelID}, v.Channels())
	})
}

func TestUserStreamRecordsJoinedStreams(t *testing.T) {
	ctx := context.Background()
	alice := testWallet(t, "alice")
	spaceID := streamid.MakeSpaceStreamID("s1")
	userID := streamid.MakeUserStreamID(alice.Address())

	userEvents, err := stream.CreateUserEvents(alice)
	require.NoError(t, err)
	user, err := stream.New(ctx, userID, stream.StreamAndCookie{Events: userEvents, SyncCookie: "u1"})
	require.NoError(t, err)

	spaceEvents, err := stream.CreateSpaceEvents(alice, spaceID)
	require.NoError(t, err)
	joined, err := stream.JoinedStreamEvent(alice, user.LeafEventHashes(), spaceID, spaceEvents[1])
	require.NoError(t, err)
	require.NoError(t, user.Apply(ctx, stream.StreamAndCookie{Events: []*events.FullEvent{joined}, SyncCookie: "u2", OriginalSyncCookie: "u1"}))

	user.View(func(v *rollup.StreamStateView) {
		require.Equal(t, []string{spaceID}, v.JoinedStreams())
	})
}

func TestBuildersRejectBadIDs(t *testing.T) {
	alice := testWallet(t, "alice")
	_, err := stream.CreateSpaceEvents(alice, "zchannel-x")
	require.True(t, events.IsKind(err, events.KindBadEvent))
	_, err = stream.CreateChannelEvents(alice, "zspace-x", "zspace-y")
	require.True(t, events.IsKind(err, events.KindBadEvent))
	_, err = stream.JoinedStreamEvent(alice, nil, "zspace-x", nil)
	require.True(t, events.IsKind(err, events.KindBadEvent))
}

func TestRegistryAppliesStreamsInParallel(t *testing.T) {
	ctx := context.Background()
	alice := testWallet(t, "alice")
	rec := &rollup.Recorder{}
	reg := stream.NewRegistry(stream.WithObserver(rec), stream.WithVerifyLimit(2))

	updates := make(map[string]stream.StreamAndCookie)
	for i := 0; i < 6; i++ {
		id := streamid.MakeSpaceStreamID(fmt.Sprintf("s%d", i))
		evs, err := stream.CreateSpaceEvents(alice, id)
		require.NoError(t, err)
		updates[id] = stream.StreamAndCookie{Events: evs, SyncCookie: "1"}
	}
	require.NoError(t, reg.Apply(ctx, updates))
	require.Len(t, reg.IDs(), 6)
	require.Equal(t, 6, rec.Count(rollup.NotifyStreamInitialized))

	next := make(map[string]stream.StreamAndCookie)
	for _, id := range reg.IDs() {
		s, ok := reg.Get(id)
		require.True(t, ok)
		msg, err := s.MakeEvent(alice, events.Message{Text: id})
		require.NoError(t, err)
		next[id] = stream.StreamAndCookie{Events: []*events.FullEvent{msg}, SyncCookie: "2", OriginalSyncCookie: "1"}
	}
	require.NoError(t, reg.Apply(ctx, next))
	require.Equal(t, 6, rec.Count(rollup.NotifyStreamUpdated))
	for _, id := range reg.IDs() {
		s, _ := reg.Get(id)
		require.Equal(t, "2", s.SyncCookie())
	}

	_, err := reg.Add(ctx, reg.IDs()[0], stream.StreamAndCookie{})
	require.ErrorIs(t, err, stream.ErrStreamExists)
}
