// Package cidutil derives content identifiers for stored event envelopes.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/towns-protocol/towns-sub022/events"
)

// CIDv1RawSHA256 returns the CIDv1 (raw codec, sha2-256) of data as a string,
// or "" if the multihash cannot be computed.
func CIDv1RawSHA256(data []byte) string {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// CIDv1RawSHA256CID returns the CIDv1 (raw codec, sha2-256) of data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// EventCID returns the CID of e's canonical JSON envelope. It is the key under
// which storage.PutEvent stores e.
func EventCID(e *events.FullEvent) (cid.Cid, error) {
	b, err := events.EncodeEvent(e)
	if err != nil {
		return cid.Undef, err
	}
	return CIDv1RawSHA256CID(b)
}
