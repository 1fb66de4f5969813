package streamid

import (
	"bytes"
	"strings"
	"testing"
)

func TestMakeAndClassify(t *testing.T) {
	cases := []struct {
		id      string
		kind    Kind
		valid   bool
		user    bool
		space   bool
		channel bool
	}{
		{MakeUserStreamID("0xAbC"), KindUser, true, true, false, false},
		{MakeSpaceStreamID("bobs-space"), KindSpace, true, false, true, false},
		{MakeChannelStreamID("general"), KindChannel, true, false, false, true},
		{"zspace-", KindUnspecified, false, false, false, false},
		{"space-x", KindUnspecified, false, false, false, false},
		{"", KindUnspecified, false, false, false, false},
		{"ZUSER-x", KindUnspecified, false, false, false, false},
	}
	for _, tc := range cases {
		kind, ok := KindOf(tc.id)
		if ok != tc.valid || kind != tc.kind {
			t.Fatalf("KindOf(%q) = %s,%v want %s,%v", tc.id, kind, ok, tc.kind, tc.valid)
		}
		if IsValid(tc.id) != tc.valid {
			t.Fatalf("IsValid(%q) = %v", tc.id, !tc.valid)
		}
		if IsUser(tc.id) != tc.user || IsSpace(tc.id) != tc.space || IsChannel(tc.id) != tc.channel {
			t.Fatalf("prefix tests mismatch for %q", tc.id)
		}
	}
}

func TestPrefixesAreDistinct(t *testing.T) {
	for i, a := range prefixes {
		for j, b := range prefixes {
			if i != j && strings.HasPrefix(a.prefix, b.prefix) {
				t.Fatalf("prefix %q shadows %q", b.prefix, a.prefix)
			}
		}
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindUser, KindSpace, KindChannel} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", k, err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if got != k {
			t.Fatalf("round trip: got %s want %s", got, k)
		}
	}
	if _, err := KindUnspecified.MarshalText(); err == nil {
		t.Fatalf("expected error for unspecified kind")
	}
	if _, err := ParseKind("dm"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestMakeUniqueIsDeterministicForReader(t *testing.T) {
	seed := bytes.Repeat([]byte{0x5a}, 16)
	a, err := MakeUnique(KindSpace, bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("MakeUnique: %v", err)
	}
	b, err := MakeUnique(KindSpace, bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("MakeUnique: %v", err)
	}
	if a != b {
		t.Fatalf("expected same id for same entropy, got %q and %q", a, b)
	}
	if !IsSpace(a) {
		t.Fatalf("expected space id, got %q", a)
	}
	if _, err := MakeUnique(KindUnspecified, bytes.NewReader(seed)); err == nil {
		t.Fatalf("expected error for unspecified kind")
	}
}
