package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/storage"
)

func TestSnapshot_StreamSummary_JSONShape(t *testing.T) {
	s := StreamSummary{
		StreamID:        "zspace-S",
		Kind:            "space",
		EventCount:      2,
		JoinedUsers:     []string{"0xA"},
		InvitedUsers:    []string{},
		SpaceChannels:   []string{"zchannel-c"},
		Messages:        []MessageSummary{{Hash: "0x01", Creator: "0xA", Text: "hi"}},
		LeafEventHashes: []string{"0x01"},
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const want = "{\n" +
		"  \"streamId\": \"zspace-S\",\n" +
		"  \"kind\": \"space\",\n" +
		"  \"eventCount\": 2,\n" +
		"  \"joinedUsers\": [\n" +
		"    \"0xA\"\n" +
		"  ],\n" +
		"  \"invitedUsers\": [],\n" +
		"  \"spaceChannels\": [\n" +
		"    \"zchannel-c\"\n" +
		"  ],\n" +
		"  \"messages\": [\n" +
		"    {\n" +
		"      \"hash\": \"0x01\",\n" +
		"      \"creator\": \"0xA\",\n" +
		"      \"text\": \"hi\"\n" +
		"    }\n" +
		"  ],\n" +
		"  \"leafEventHashes\": [\n" +
		"    \"0x01\"\n" +
		"  ]\n" +
		"}"

	if string(b) != want {
		t.Fatalf("unexpected JSON shape:\n%s", b)
	}
}

func TestSnapshot_StreamSummary_YAMLShape(t *testing.T) {
	s := StreamSummary{
		StreamID:        "zchannel-c",
		Kind:            "channel",
		ParentSpaceID:   "zspace-S",
		JoinedUsers:     []string{},
		InvitedUsers:    []string{},
		Messages:        []MessageSummary{},
		LeafEventHashes: []string{"0x02"},
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	got := string(b)
	for _, want := range []string{"streamId: zchannel-c\n", "parentSpaceId: zspace-S\n", "leafEventHashes:\n", "0x02"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in YAML:\n%s", want, got)
		}
	}
	if strings.Contains(got, "spaceChannels") {
		t.Fatalf("empty spaceChannels should be omitted:\n%s", got)
	}
}

func TestFromErrorMapsEventKinds(t *testing.T) {
	err := events.AtIndex(events.NewError(events.KindSignatureMismatch, "0xabc", "bad signature"), 3, "")
	ce := FromError(err)
	if ce.Code != ErrSignatureMismatch {
		t.Fatalf("unexpected code %s", ce.Code)
	}
	if ce.Index == nil || *ce.Index != 3 || ce.Hash != "0xabc" {
		t.Fatalf("expected batch location, got %+v", ce)
	}

	if got := FromError(storage.ErrNotFound).Code; got != ErrNotFound {
		t.Fatalf("unexpected code for not found: %s", got)
	}
	if got := FromError(fmt.Errorf("put: %w", storage.ErrRejected)).Code; got != ErrRejected {
		t.Fatalf("unexpected code for rejected: %s", got)
	}
	if FromError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
