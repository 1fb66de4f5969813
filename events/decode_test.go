package events_test

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/streamid"
)

func TestEncodeDecodeEventsPreservesHashes(t *testing.T) {
	w := testWallet(t, "alice")
	inception := mustMake(t, w, events.Inception{
		StreamID:   streamid.MakeChannelStreamID("c1"),
		StreamKind: streamid.KindChannel,
		SpaceID:    streamid.MakeSpaceStreamID("s1"),
	}, nil)
	join := mustMake(t, w, events.Join{UserID: w.Address()}, []string{inception.Hash})
	ref := events.MakeEventRef(streamid.MakeChannelStreamID("c1"), join)
	joined := mustMake(t, w, events.UserJoined{StreamID: ref.StreamID, EventRef: ref}, nil)

	data, err := events.EncodeEvents([]*events.FullEvent{inception, join, joined})
	if err != nil {
		t.Fatalf("EncodeEvents: %v", err)
	}
	got, err := events.DecodeEvents(data)
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if err := events.CheckEvents(got[:2]); err != nil {
		t.Fatalf("CheckEvents after decode: %v", err)
	}
	if err := events.CheckEvent(got[2], ""); err != nil {
		t.Fatalf("CheckEvent after decode: %v", err)
	}
	inc, ok := got[0].Base.Payload.(events.Inception)
	if !ok || inc.StreamKind != streamid.KindChannel || inc.SpaceID != streamid.MakeSpaceStreamID("s1") {
		t.Fatalf("unexpected inception payload %#v", got[0].Base.Payload)
	}
	uj, ok := got[2].Base.Payload.(events.UserJoined)
	if !ok || uj.EventRef != ref {
		t.Fatalf("unexpected user-joined payload %#v", got[2].Base.Payload)
	}
	if got[0].Base.PrevEvents == nil || len(got[0].Base.PrevEvents) != 0 {
		t.Fatalf("expected empty, non-nil prevEvents, got %#v", got[0].Base.PrevEvents)
	}
}

func TestDecodeUnknownPayloadKeepsHash(t *testing.T) {
	w := testWallet(t, "alice")
	base := events.BaseEvent{
		CreatorAddress: w.Address(),
		Salt:           "3f0b6a1e-8f3e-4d59-9d0c-2c1c1f8e9a11",
		PrevEvents:     []string{hashOfByte(4)},
		Payload: events.UnknownPayload{
			Type: "reaction",
			Raw:  json.RawMessage(`{"kind":"reaction","emoji":"+1","target":{"n":1.5}}`),
		},
	}
	hash, _, err := events.HashEvent(&base)
	if err != nil {
		t.Fatalf("HashEvent: %v", err)
	}
	var digest [32]byte
	raw, err := hex.DecodeString(hash[2:])
	if err != nil {
		t.Fatalf("decode hash: %v", err)
	}
	copy(digest[:], raw)
	sig, err := w.Sign(digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	e := &events.FullEvent{Hash: hash, Signature: "0x" + hex.EncodeToString(sig), Base: base}

	data, err := events.EncodeEvent(e)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	decoded, err := events.DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	up, ok := decoded.Base.Payload.(events.UnknownPayload)
	if !ok || up.Type != "reaction" {
		t.Fatalf("expected UnknownPayload, got %#v", decoded.Base.Payload)
	}
	if err := events.CheckEvent(decoded, ""); err != nil {
		t.Fatalf("CheckEvent on unknown payload: %v", err)
	}
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"missing base":    `{"hash":"0x00","signature":"0x00"}`,
		"extra field":     `{"hash":"0x00","signature":"0x00","base":{"creatorAddress":"a","salt":"s","prevEvents":[],"payload":{"kind":"message","text":"x"}},"x":1}`,
		"payload no kind": `{"hash":"0x00","signature":"0x00","base":{"creatorAddress":"a","salt":"s","prevEvents":[],"payload":{"text":"x"}}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := events.DecodeEvent([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDecodeEventsReportsIndex(t *testing.T) {
	doc := `[{"hash":"0x00","signature":"0x00","base":{"creatorAddress":"a","salt":"s","prevEvents":[],"payload":{"kind":"message","text":"x"}}},` +
		`{"hash":"0x00","signature":"0x00","base":{"creatorAddress":"a","salt":"s","prevEvents":[],"payload":{"kind":"join","userId":7}}}]`
	_, err := events.DecodeEvents([]byte(doc))
	var se *events.Error
	if !errors.As(err, &se) || se.Index != 1 {
		t.Fatalf("expected failure at index 1, got %v", err)
	}
}
