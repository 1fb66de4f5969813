// Command event_vector_gen prints a deterministic space/channel/user scenario as
// canonical event JSON, for use as cross-implementation conformance vectors.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/towns-protocol/towns-sub022/cidutil"
	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/keys"
	"github.com/towns-protocol/towns-sub022/stream"
)

const (
	vectorSpaceID   = "zspace-vector"
	vectorChannelID = "zchannel-vector"
)

type vector struct {
	StreamID string
	Events   []*events.FullEvent
}

func mustSeed(b byte) []byte {
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

// buildVectors derives every key and salt from fixed seeds, so the output is
// byte-for-byte stable.
func buildVectors() ([]vector, error) {
	wallet, err := keys.WalletFromSeed(mustSeed(0xA1))
	if err != nil {
		return nil, err
	}
	salts := events.WithRand(keys.NewSeededReader(mustSeed(0x5A)))

	user, err := stream.CreateUserEvents(wallet, salts)
	if err != nil {
		return nil, fmt.Errorf("user stream: %w", err)
	}
	space, err := stream.CreateSpaceEvents(wallet, vectorSpaceID, salts)
	if err != nil {
		return nil, fmt.Errorf("space stream: %w", err)
	}
	channel, err := stream.CreateChannelEvents(wallet, vectorSpaceID, vectorChannelID, salts)
	if err != nil {
		return nil, fmt.Errorf("channel stream: %w", err)
	}
	created, err := stream.ChannelCreatedEvent(wallet, []string{space[1].Hash}, vectorChannelID, channel[0], salts)
	if err != nil {
		return nil, fmt.Errorf("channel created: %w", err)
	}
	space = append(space, created)

	msg, err := events.MakeEvent(wallet, events.Message{Text: "hello"}, []string{channel[1].Hash}, salts)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	channel = append(channel, msg)

	joined, err := stream.JoinedStreamEvent(wallet, []string{user[0].Hash}, vectorSpaceID, space[1], salts)
	if err != nil {
		return nil, fmt.Errorf("user joined: %w", err)
	}
	user = append(user, joined)

	return []vector{
		{StreamID: user[0].Base.Payload.(events.Inception).StreamID, Events: user},
		{StreamID: vectorSpaceID, Events: space},
		{StreamID: vectorChannelID, Events: channel},
	}, nil
}

func writeVectors(w io.Writer, vectors []vector) error {
	for _, v := range vectors {
		fmt.Fprintf(w, "STREAM=%s\n", v.StreamID)
		for _, e := range v.Events {
			b, err := events.EncodeEvent(e)
			if err != nil {
				return err
			}
			id, err := cidutil.EventCID(e)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "HASH=%s\nCID=%s\n---BEGIN---\n%s\n---END---\n", e.Hash, id, b)
		}
	}
	return nil
}

func main() {
	vectors, err := buildVectors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var buf bytes.Buffer
	if err := writeVectors(&buf, vectors); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_, _ = os.Stdout.Write(buf.Bytes())
}
