// Package handshake implements the hybrid key agreement used to bootstrap a
// ratchet session between two devices.
//
// # Overview
//
// The initiator derives a shared 32-byte root key from a responder's
// published bundle without contacting it live. The bundle contains:
//   - Identity keys (X25519 agreement, Ed25519 signing)
//   - Signed pre-key (X25519) and its Ed25519 signature
//   - Optional one-time pre-key (X25519)
//   - ML-KEM pre-key and its Ed25519 signature
//   - Optional one-time ML-KEM pre-key
//
// # Flows
//
// Initiator:
//  1. Verify the signed pre-key signature, then the ML-KEM pre-key signature.
//  2. Generate an ephemeral X25519 pair.
//  3. Compute DH values in fixed order (IKa·SPKb, EKa·IKb, EKa·SPKb[, EKa·OPKb]).
//  4. Encapsulate to the one-time ML-KEM key when present, else the ML-KEM
//     pre-key.
//  5. HKDF over the DH transcript followed by the KEM secret to produce the
//     root key; return it with the hello record for the first envelope.
//
// Responder:
//  1. Receive the hello (initiator IK, ephemeral EK, pre-key ids, KEM ciphertext).
//  2. Look up the signed pre-key; consume the named one-time keys.
//  3. Compute the mirrored DH set and decapsulate the ciphertext.
//  4. HKDF the same transcript to the identical root key.
//
// # Security notes
//
// The root key stays secret as long as either the classical or the KEM
// component does. One-time pre-keys are mixed in and deleted after first use.
package handshake
