// Package session establishes and tracks pairwise sessions.
//
// It runs the initiator side of the hybrid handshake against a fetched
// bundle, persists the session material, and exposes lookups for the message
// service. The responder side has no service: it bootstraps inline when the
// first envelope arrives.
package session
