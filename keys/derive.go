package keys

import (
	"crypto/sha256"
	"fmt"
)

const roleKDFLabel = "towns-events-keystore-v1"

// DeriveRoleSeed deterministically derives a role-specific secp256k1 seed from a root seed.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(roleKDFLabel))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	out := h.Sum(nil)
	if _, err := WalletFromSeed(out); err != nil {
		return nil, fmt.Errorf("derived seed for role %q: %w", role, err)
	}
	return out, nil
}
