package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/towns-protocol/towns-sub022/cidutil"
)

// NamedCAS is an event store with the name used in logs and errors
// (a directory path, or "grpc:" + address for a remote).
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS keeps a copy of every event envelope in each backend.
//
// Writes go to all backends in order and stop at the first failure; reads use
// MultiCAS semantics over the same order. Every backend must report the CID
// computed locally from the envelope bytes.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = ReplicatingCAS{}

// PutAll stores envelope in every backend. It returns the locally computed CID
// and the CID each backend reported, keyed by backend name; on failure the map
// holds the backends written so far.
func (r ReplicatingCAS) PutAll(envelope []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(envelope)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: no event stores to replicate to")
	}

	written := make(map[string]cid.Cid, len(r.Backends))
	for _, backend := range r.Backends {
		if backend.CAS == nil {
			return cid.Undef, written, fmt.Errorf("storage: event store %q is not open", backend.Name)
		}
		got, err := backend.CAS.Put(envelope)
		if err != nil {
			return cid.Undef, written, fmt.Errorf("storage: event store %q: %w", backend.Name, err)
		}
		written[backend.Name] = got
		if got != want {
			return cid.Undef, written, fmt.Errorf("storage: event store %q: %w", backend.Name, ErrCIDMismatch)
		}
	}
	return want, written, nil
}

func (r ReplicatingCAS) Put(envelope []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(envelope)
	return id, err
}

func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	return MultiCAS{Adapters: r.open()}.Get(id)
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	return MultiCAS{Adapters: r.open()}.Has(id)
}

// Locate returns the names of the backends holding id, in backend order.
// A short list means the envelope is under-replicated.
func (r ReplicatingCAS) Locate(id cid.Cid) []string {
	var names []string
	for _, backend := range r.Backends {
		if backend.CAS != nil && backend.CAS.Has(id) {
			names = append(names, backend.Name)
		}
	}
	return names
}

func (r ReplicatingCAS) open() []CAS {
	out := make([]CAS, 0, len(r.Backends))
	for _, backend := range r.Backends {
		if backend.CAS != nil {
			out = append(out, backend.CAS)
		}
	}
	return out
}
