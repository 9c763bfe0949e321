// Package relay provides the transports behind the domain.RelayClient
// interface: an HTTP client for a remote relay daemon and an in-process
// implementation backed by the directory and a mailbox.
//
// The relay acts as a store-and-forward service for encrypted messages and
// pre-key bundles between devices. It sees ciphertext and public keys only.
//
// Supported operations:
//   - Publishing a device's key set.
//   - Fetching a peer's pre-key bundle (draining one-time keys).
//   - Sending wire messages to a device's mailbox.
//   - Fetching pending messages and acknowledging processed ones.
//
// All HTTP requests are JSON and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors with the HTTP method,
// full URL, and status text to aid diagnostics.
package relay
