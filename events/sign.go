package events

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// SignatureLen is the size of a recoverable secp256k1 signature: R || S || V.
const SignatureLen = 65

// Signer is the signing identity capability consumed by MakeEvent.
//
// Address returns the EIP-55 checksummed address of the identity. Sign returns a
// recoverable signature over digest from which Address can be recovered.
type Signer interface {
	Address() string
	Sign(digest [HashLen]byte) ([]byte, error)
}

type makeOptions struct {
	rand io.Reader
}

// MakeOption configures MakeEvent and MakeEvents.
type MakeOption func(*makeOptions)

// WithRand sets the entropy source for event salts. The default is crypto/rand.
func WithRand(r io.Reader) MakeOption {
	return func(o *makeOptions) {
		if r != nil {
			o.rand = r
		}
	}
}

func resolveOptions(opts []MakeOption) makeOptions {
	o := makeOptions{rand: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MakeEvent builds and signs an event with the given payload and parents.
//
// Every prevEvents entry must be a canonical hash (see IsValidHash); anything else
// fails with KindInvalidPrevEventHash. Each call draws a fresh salt, so two calls
// with identical arguments produce different events.
func MakeEvent(signer Signer, payload Payload, prevEvents []string, opts ...MakeOption) (*FullEvent, error) {
	return makeEvent(signer, payload, prevEvents, resolveOptions(opts))
}

// MakeEvents applies MakeEvent to each payload with the same prevEvents.
func MakeEvents(signer Signer, payloads []Payload, prevEvents []string, opts ...MakeOption) ([]*FullEvent, error) {
	o := resolveOptions(opts)
	out := make([]*FullEvent, 0, len(payloads))
	for i, p := range payloads {
		e, err := makeEvent(signer, p, prevEvents, o)
		if err != nil {
			return nil, AtIndex(err, i, "")
		}
		out = append(out, e)
	}
	return out, nil
}

func makeEvent(signer Signer, payload Payload, prevEvents []string, o makeOptions) (*FullEvent, error) {
	if signer == nil {
		return nil, NewError(KindBadEvent, "", "signer is required")
	}
	for i, prev := range prevEvents {
		if !IsValidHash(prev) {
			return nil, newErrorf(KindInvalidPrevEventHash, "", "prevEvents[%d] %q is not a canonical event hash", i, prev)
		}
	}
	switch p := payload.(type) {
	case nil:
		return nil, NewError(KindBadPayload, "", "payload is required")
	case UnknownPayload:
		return nil, newErrorf(KindBadPayload, "", "cannot create event with unknown payload kind %q", p.Type)
	}

	salt, err := uuid.NewRandomFromReader(o.rand)
	if err != nil {
		return nil, WrapError(KindBadEvent, "", "generate salt", err)
	}
	base := BaseEvent{
		CreatorAddress: signer.Address(),
		Salt:           salt.String(),
		PrevEvents:     append([]string{}, prevEvents...),
		Payload:        payload,
	}
	hash, _, err := HashEvent(&base)
	if err != nil {
		return nil, err
	}
	digest, err := decodeHash(hash)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return nil, WrapError(KindSignatureMismatch, hash, "sign event", err)
	}
	return &FullEvent{Hash: hash, Signature: encodeSignature(sig), Base: base}, nil
}

// RecoverAddress returns the checksummed address that produced signature over hash.
func RecoverAddress(hash, signature string) (string, error) {
	digest, err := decodeHash(hash)
	if err != nil {
		return "", err
	}
	sig, err := decodeSignature(signature)
	if err != nil {
		return "", err
	}
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func encodeSignature(sig []byte) string {
	return "0x" + hex.EncodeToString(sig)
}

func decodeSignature(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("signature must be 0x-prefixed hex")
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("signature hex: %w", err)
	}
	if len(b) != SignatureLen {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", SignatureLen, len(b))
	}
	return b, nil
}
