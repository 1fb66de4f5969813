//go:build property
// +build property

package events_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/towns-protocol/towns-sub022/events"
)

// Property: HashEvent(base) == HashEvent(base) for any message body and parents.
func TestHashEventDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("hashing is deterministic", prop.ForAll(
		func(text string, salt string, n uint8) bool {
			prev := make([]string, int(n%4))
			for i := range prev {
				prev[i] = hashOfByte(byte(i) + n)
			}
			base := events.BaseEvent{
				CreatorAddress: "0x0000000000000000000000000000000000000001",
				Salt:           salt,
				PrevEvents:     prev,
				Payload:        events.Message{Text: text},
			}
			h1, c1, err1 := events.HashEvent(&base)
			h2, c2, err2 := events.HashEvent(&base)
			if err1 != nil || err2 != nil {
				return false
			}
			return h1 == h2 && string(c1) == string(c2) && events.IsValidHash(h1)
		},
		gen.AnyString(),
		gen.AlphaString(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// Property: every constructed event verifies and recovers to its creator.
func TestCreatorBinding(t *testing.T) {
	alice := testWallet(t, "alice")
	bob := testWallet(t, "bob")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("signature recovers to creator", prop.ForAll(
		func(text string, useBob bool) bool {
			signer := events.Signer(alice)
			if useBob {
				signer = bob
			}
			e, err := events.MakeEvent(signer, events.Message{Text: text}, nil)
			if err != nil {
				return false
			}
			if events.CheckEvent(e, "") != nil {
				return false
			}
			addr, err := events.RecoverAddress(e.Hash, e.Signature)
			return err == nil && addr == signer.Address()
		},
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.Property("changing any text breaks the hash", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return true
			}
			e, err := events.MakeEvent(alice, events.Message{Text: a}, nil)
			if err != nil {
				return false
			}
			c := *e
			c.Base.Payload = events.Message{Text: b}
			return events.IsKind(events.CheckEvent(&c, ""), events.KindHashMismatch)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
