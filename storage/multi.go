package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS serves event envelopes from an ordered list of stores, typically
// local directories ahead of remote event stores.
//
// Reads try Adapters in slice order and fall through only on ErrNotFound.
// Put writes to Adapters[0] alone; use ReplicatingCAS to write everywhere.
type MultiCAS struct {
	Adapters []CAS
}

var _ CAS = MultiCAS{}

func (m MultiCAS) Put(envelope []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, errors.New("storage: no event stores to write to")
	}
	return m.Adapters[0].Put(envelope)
}

// Get returns the envelope from the first store holding id. Any error other
// than ErrNotFound (a hash mismatch from a remote, say) ends the lookup.
func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	for _, store := range m.Adapters {
		envelope, err := store.Get(id)
		switch {
		case err == nil:
			return envelope, nil
		case IsNotFound(err):
		default:
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, store := range m.Adapters {
		if store.Has(id) {
			return true
		}
	}
	return false
}
