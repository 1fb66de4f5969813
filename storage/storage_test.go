package storage_test

import (
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/towns-protocol/towns-sub022/cidutil"
	"github.com/towns-protocol/towns-sub022/storage"
	"github.com/towns-protocol/towns-sub022/storage/testkit"
)

func TestMemoryConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.NewMemory()
	})
}

func TestMultiCASConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.MultiCAS{Adapters: []storage.CAS{storage.NewMemory(), storage.NewMemory()}}
	})
}

func TestReplicatingCASConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.ReplicatingCAS{Backends: []storage.NamedCAS{
			{Name: "a", CAS: storage.NewMemory()},
			{Name: "b", CAS: storage.NewMemory()},
		}}
	})
}

func TestMultiCASFallsBackInOrder(t *testing.T) {
	first, second := storage.NewMemory(), storage.NewMemory()
	id, err := second.Put([]byte("only in second"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	m := storage.MultiCAS{Adapters: []storage.CAS{first, second}}
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "only in second" {
		t.Fatalf("unexpected bytes %q", got)
	}
	if _, err := m.Put([]byte("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if first.Len() != 1 || second.Len() != 1 {
		t.Fatalf("MultiCAS.Put must write only to the first adapter")
	}
}

type lyingCAS struct{ storage.CAS }

func (l lyingCAS) Put([]byte) (cid.Cid, error) {
	return cidutil.CIDv1RawSHA256CID([]byte("something else"))
}

func TestReplicatingCASDetectsMismatch(t *testing.T) {
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "good", CAS: storage.NewMemory()},
		{Name: "bad", CAS: lyingCAS{storage.NewMemory()}},
	}}
	_, per, err := r.PutAll([]byte("payload"))
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
	if _, ok := per["good"]; !ok {
		t.Fatalf("expected per-backend result for good backend")
	}
}

func TestReplicatingCASWritesAll(t *testing.T) {
	a, b := storage.NewMemory(), storage.NewMemory()
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}
	id, per, err := r.PutAll([]byte("payload"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if per["a"] != id || per["b"] != id {
		t.Fatalf("unexpected per-backend CIDs: %v", per)
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("expected both backends to hold the object")
	}
}

func TestReplicatingCASLocate(t *testing.T) {
	a, b := storage.NewMemory(), storage.NewMemory()
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}
	id, err := r.Put([]byte("envelope"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := r.Locate(id); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Locate after replication: %v", got)
	}
	only, err := a.Put([]byte("local only"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := r.Locate(only); len(got) != 1 || got[0] != "a" {
		t.Fatalf("Locate for under-replicated envelope: %v", got)
	}
	if got, err := r.Get(only); err != nil || string(got) != "local only" {
		t.Fatalf("Get fell through incorrectly: %q %v", got, err)
	}
}

func TestGetEventMissing(t *testing.T) {
	id, err := cidutil.CIDv1RawSHA256CID([]byte("absent"))
	if err != nil {
		t.Fatalf("CID: %v", err)
	}
	if _, err := storage.GetEvent(storage.NewMemory(), id); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetEventRejectsNonEvent(t *testing.T) {
	m := storage.NewMemory()
	id, err := m.Put([]byte(`{"not":"an event"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := storage.GetEvent(m, id); err == nil {
		t.Fatalf("expected decode error")
	}
}
