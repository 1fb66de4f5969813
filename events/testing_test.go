package events_test

import (
	"testing"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/keys"
)

func testWallet(t testing.TB, name string) *keys.Wallet {
	t.Helper()
	w, err := keys.GenerateWallet(keys.NewSeededReader([]byte("wallet:" + name)))
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}
	return w
}

func mustMake(t testing.TB, signer events.Signer, payload events.Payload, prev []string) *events.FullEvent {
	t.Helper()
	e, err := events.MakeEvent(signer, payload, prev)
	if err != nil {
		t.Fatalf("MakeEvent: %v", err)
	}
	return e
}

func hashOfByte(b byte) string {
	const digits = "0123456789abcdef"
	out := []byte("0x")
	for i := 0; i < 64; i++ {
		out = append(out, digits[int(b)%16])
	}
	return string(out)
}

