package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/towns-protocol/towns-sub022/events"
)

// PutEvent stores the canonical JSON envelope of e and returns its CID.
// Equal events always map to the same CID.
func PutEvent(cas CAS, e *events.FullEvent) (cid.Cid, error) {
	b, err := events.EncodeEvent(e)
	if err != nil {
		return cid.Undef, err
	}
	id, err := cas.Put(b)
	if err != nil {
		return cid.Undef, fmt.Errorf("storage: put event %s: %w", e.Hash, err)
	}
	return id, nil
}

// GetEvent loads and decodes the event stored under id. The event is not
// verified; run events.CheckEvent on the result.
func GetEvent(cas CAS, id cid.Cid) (*events.FullEvent, error) {
	b, err := cas.Get(id)
	if err != nil {
		return nil, err
	}
	e, err := events.DecodeEvent(b)
	if err != nil {
		return nil, fmt.Errorf("storage: decode event %s: %w", id, err)
	}
	return e, nil
}
