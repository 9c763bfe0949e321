// Package ratchet implements the hybrid double ratchet driving pairwise
// message keys.
//
// The algorithm maintains a root key and two message chains (send and
// receive). Each message advances a KDF chain so that keys are forward
// secure. When a party changes its ratchet public key, both sides derive new
// chain keys from a new root; every such epoch braids an ML-KEM shared
// secret into the root next to the classical DH output, so compromising one
// component alone recovers nothing.
//
// The KEM ciphertext and the sender's fresh KEM public key ride on exactly
// the first message of each epoch. A message that opens a new epoch without
// them cannot be processed yet and is handed back as ErrDeferred; the caller
// keeps the queue.
//
// Concurrency: RatchetState is NOT safe for concurrent use. Callers must
// serialise access per conversation.
package ratchet
