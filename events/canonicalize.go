package events

import (
	"encoding/hex"
	"encoding/json"
	"regexp"
	"unicode/utf8"

	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/sha3"
)

// HashLen is the digest size of an event hash in bytes.
const HashLen = 32

var hashPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// IsValidHash reports whether s is an event hash in canonical text form:
// "0x" followed by exactly 64 lowercase hex digits.
func IsValidHash(s string) bool {
	return hashPattern.MatchString(s)
}

// Canonicalize is the single canonicalization choke point for event bodies.
//
// The body is encoded as JSON and transformed per RFC 8785 (JCS), so key order,
// whitespace and number/string escaping are fixed. All hashing and signing goes
// through Canonicalize. Strings that are not valid UTF-8 fail with KindEncoding,
// since JSON encoding would rewrite them and distinct bodies would share a hash.
func Canonicalize(base *BaseEvent) ([]byte, error) {
	if base == nil {
		return nil, NewError(KindBadEvent, "", "nil event base")
	}
	if err := checkUTF8(base); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(base)
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, WrapError(KindEncoding, "", "encode event base", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, WrapError(KindEncoding, "", "canonicalize event base", err)
	}
	return canon, nil
}

func checkUTF8(base *BaseEvent) error {
	fields := []string{base.CreatorAddress, base.Salt}
	fields = append(fields, base.PrevEvents...)
	switch p := base.Payload.(type) {
	case Inception:
		fields = append(fields, p.StreamID, p.SpaceID)
	case Invite:
		fields = append(fields, p.UserID)
	case Join:
		fields = append(fields, p.UserID)
	case Leave:
		fields = append(fields, p.UserID)
	case UserInvited:
		fields = append(fields, p.StreamID)
		fields = append(fields, refStrings(p.EventRef)...)
	case UserJoined:
		fields = append(fields, p.StreamID)
		fields = append(fields, refStrings(p.EventRef)...)
	case UserLeft:
		fields = append(fields, p.StreamID)
		fields = append(fields, refStrings(p.EventRef)...)
	case ChannelCreated:
		fields = append(fields, p.ChannelID)
		fields = append(fields, refStrings(p.EventRef)...)
	case ChannelDeleted:
		fields = append(fields, p.ChannelID)
		fields = append(fields, refStrings(p.EventRef)...)
	case Message:
		fields = append(fields, p.Text)
	case UnknownPayload:
		if !utf8.Valid(p.Raw) {
			return NewError(KindEncoding, "", "payload is not valid UTF-8")
		}
		fields = append(fields, p.Type)
	}
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return newErrorf(KindEncoding, "", "string %q is not valid UTF-8", f)
		}
	}
	return nil
}

func refStrings(r EventRef) []string {
	return []string{r.StreamID, r.Hash, r.Signature, r.CreatorAddress}
}

// HashEvent returns the keccak-256 hash of base's canonical bytes, rendered as
// "0x" + 64 lowercase hex digits, together with the bytes that were hashed.
func HashEvent(base *BaseEvent) (string, []byte, error) {
	canon, err := Canonicalize(base)
	if err != nil {
		return "", nil, err
	}
	digest := keccak256(canon)
	return "0x" + hex.EncodeToString(digest[:]), canon, nil
}

func keccak256(data []byte) [HashLen]byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	var out [HashLen]byte
	copy(out[:], h.Sum(nil))
	return out
}

// decodeHash parses a canonical hash string into its digest.
func decodeHash(s string) ([HashLen]byte, error) {
	var out [HashLen]byte
	if !IsValidHash(s) {
		return out, newErrorf(KindBadEvent, "", "malformed event hash %q", s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return out, WrapError(KindBadEvent, "", "malformed event hash", err)
	}
	copy(out[:], b)
	return out, nil
}
