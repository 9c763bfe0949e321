// Package message is the pairwise orchestrator: it encrypts and sends
// envelopes, bootstraps responder sessions from hello records, decrypts
// inbound traffic, and routes the results.
//
// Two responsibilities sit above the raw ratchet:
//
//   - Deferred delivery. A message that opens a new remote epoch without its
//     KEM ciphertext cannot be processed yet; the ratchet hands it back and
//     this service queues it per peer, retrying after every successful
//     decrypt from that peer.
//
//   - Dispatch. Decrypted plaintext is either a user message or a tagged
//     sender-key distribution, which is handed to the group service instead
//     of being surfaced.
package message
