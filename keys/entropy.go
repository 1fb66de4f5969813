package keys

import (
	"io"

	"github.com/cloudflare/circl/xof"
)

// NewSeededReader returns an endless deterministic byte stream: SHAKE256 over seed.
//
// It is meant for reproducible fixtures (salts, keys, unique stream ids). Do not
// use it where real entropy is required.
func NewSeededReader(seed []byte) io.Reader {
	x := xof.SHAKE256.New()
	_, _ = x.Write([]byte("towns-events-seeded-reader"))
	_, _ = x.Write([]byte{0})
	_, _ = x.Write(seed)
	return x
}
