package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
)

// SeedSize is the size of a secp256k1 private scalar in bytes.
const SeedSize = 32

// Wallet is a secp256k1 signing identity. It implements events.Signer.
type Wallet struct {
	priv    *ecdsa.PrivateKey
	address string
}

// WalletFromSeed returns the wallet whose private scalar is seed.
func WalletFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	priv, err := crypto.ToECDSA(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 seed: %w", err)
	}
	return newWallet(priv), nil
}

// WalletFromHex parses a hex private key, with or without a 0x prefix.
func WalletFromHex(s string) (*Wallet, error) {
	seed, err := ParseSeedHex(s)
	if err != nil {
		return nil, err
	}
	return WalletFromSeed(seed)
}

// GenerateWallet draws a fresh key from rand. Reads are retried until a valid
// scalar is produced, so a deterministic reader yields a deterministic wallet.
func GenerateWallet(rand io.Reader) (*Wallet, error) {
	if rand == nil {
		return nil, errors.New("missing entropy source")
	}
	seed := make([]byte, SeedSize)
	for attempt := 0; attempt < 16; attempt++ {
		if _, err := io.ReadFull(rand, seed); err != nil {
			return nil, fmt.Errorf("read entropy: %w", err)
		}
		if w, err := WalletFromSeed(seed); err == nil {
			return w, nil
		}
	}
	return nil, errors.New("entropy source produced no valid secp256k1 key")
}

func newWallet(priv *ecdsa.PrivateKey) *Wallet {
	return &Wallet{priv: priv, address: crypto.PubkeyToAddress(priv.PublicKey).Hex()}
}

// Address returns the EIP-55 checksummed address of the wallet.
func (w *Wallet) Address() string { return w.address }

// Sign returns the 65-byte recoverable signature [R || S || V] over digest.
func (w *Wallet) Sign(digest [32]byte) ([]byte, error) {
	if w == nil || w.priv == nil {
		return nil, errors.New("missing private key")
	}
	return crypto.Sign(digest[:], w.priv)
}

// Seed returns a copy of the private scalar.
func (w *Wallet) Seed() []byte {
	return crypto.FromECDSA(w.priv)
}

// SeedHex returns the private scalar as lowercase hex without prefix.
func (w *Wallet) SeedHex() string {
	return hex.EncodeToString(w.Seed())
}

// AddressFromSeed returns the checksummed address for a private scalar.
func AddressFromSeed(seed []byte) (string, error) {
	w, err := WalletFromSeed(seed)
	if err != nil {
		return "", err
	}
	return w.Address(), nil
}
