// Package crypto exposes the primitives used by braid.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - The chain and root key derivation family (KdfChain, KdfRootClassical,
//     KdfRootHybrid, DeriveHandshakeSecret)
//   - AES-256-GCM sealing with a random prepended nonce (Seal, Open)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short base58 public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Key material uses the fixed-size array types from internal/domain to avoid
// accidental reallocations. Callers should treat returned secrets as
// sensitive and rely on Wipe when practical to reduce lifetime in memory.
package crypto
