// Package streamid implements the stream identifier scheme.
//
// A stream id is a kind prefix followed by an opaque identity. The prefix is the
// only part of the id this package interprets.
package streamid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Kind is the type of a stream. It is fixed by the stream's inception event.
type Kind int

const (
	KindUnspecified Kind = iota
	KindUser
	KindSpace
	KindChannel
)

const (
	UserPrefix    = "zuser-"
	SpacePrefix   = "zspace-"
	ChannelPrefix = "zchannel-"
)

var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{UserPrefix, KindUser},
	{SpacePrefix, KindSpace},
	{ChannelPrefix, KindChannel},
}

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindSpace:
		return "space"
	case KindChannel:
		return "channel"
	default:
		return "unspecified"
	}
}

// Prefix returns the id prefix for k, or "" for KindUnspecified.
func (k Kind) Prefix() string {
	for _, p := range prefixes {
		if p.kind == k {
			return p.prefix
		}
	}
	return ""
}

// MarshalText encodes the kind by name so it hashes the same across builds.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindUnspecified {
		return nil, fmt.Errorf("streamid: cannot encode unspecified kind")
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "user":
		return KindUser, nil
	case "space":
		return KindSpace, nil
	case "channel":
		return KindChannel, nil
	default:
		return KindUnspecified, fmt.Errorf("streamid: unknown stream kind %q", s)
	}
}

// Make concatenates prefix and identity.
func Make(prefix, identity string) string {
	return prefix + identity
}

func MakeUserStreamID(address string) string    { return Make(UserPrefix, address) }
func MakeSpaceStreamID(identity string) string   { return Make(SpacePrefix, identity) }
func MakeChannelStreamID(identity string) string { return Make(ChannelPrefix, identity) }

// MakeUnique returns a fresh id of the given kind whose identity is a UUID read from r.
func MakeUnique(kind Kind, r io.Reader) (string, error) {
	prefix := kind.Prefix()
	if prefix == "" {
		return "", fmt.Errorf("streamid: no prefix for kind %s", kind)
	}
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("streamid: generate identity: %w", err)
	}
	return Make(prefix, id.String()), nil
}

// KindOf returns the kind encoded by id's prefix.
// An id that is only a prefix has no identity and is not valid.
func KindOf(id string) (Kind, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p.prefix) && len(id) > len(p.prefix) {
			return p.kind, true
		}
	}
	return KindUnspecified, false
}

// IsValid reports whether id starts with exactly one allowed prefix.
func IsValid(id string) bool {
	_, ok := KindOf(id)
	return ok
}

func IsUser(id string) bool    { return hasKind(id, KindUser) }
func IsSpace(id string) bool   { return hasKind(id, KindSpace) }
func IsChannel(id string) bool { return hasKind(id, KindChannel) }

func hasKind(id string, kind Kind) bool {
	k, ok := KindOf(id)
	return ok && k == kind
}
