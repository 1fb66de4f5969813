// Package keys provides the secp256k1 signing identities used to author events.
//
// API stability:
//
// Stable:
//   - Wallet, which implements events.Signer, and the pure seed derivation helpers.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions).
//     These are local-first utilities and are not part of the event format.
package keys
