// Package testkit holds the shared contract suite for storage.CAS implementations.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/towns-protocol/towns-sub022/cidutil"
	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/keys"
	"github.com/towns-protocol/towns-sub022/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte(`{"kind":"message","text":"hello"}`)

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		if err != nil {
			t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := cas.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("EventRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		w, err := keys.GenerateWallet(keys.NewSeededReader([]byte("testkit")))
		if err != nil {
			t.Fatalf("GenerateWallet failed: %v", err)
		}
		e, err := events.MakeEvent(w, events.Message{Text: "stored"}, nil)
		if err != nil {
			t.Fatalf("MakeEvent failed: %v", err)
		}

		id, err := storage.PutEvent(cas, e)
		if err != nil {
			t.Fatalf("PutEvent failed: %v", err)
		}
		wantID, err := cidutil.EventCID(e)
		if err != nil {
			t.Fatalf("EventCID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("PutEvent CID mismatch: got %s want %s", id, wantID)
		}

		got, err := storage.GetEvent(cas, id)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got.Hash != e.Hash {
			t.Fatalf("GetEvent hash mismatch: got %s want %s", got.Hash, e.Hash)
		}
		if err := events.CheckEvent(got, ""); err != nil {
			t.Fatalf("stored event no longer verifies: %v", err)
		}
	})
}
