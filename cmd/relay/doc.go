// Command relay runs the store-and-forward relay daemon: the pre-key
// directory plus per-device mailboxes over HTTP.
//
// State is in-memory only; restarting the daemon drops published bundles and
// queued messages, and devices simply register again. The daemon exposes
// prometheus metrics on /metrics and applies a per-device token-bucket rate
// limit to every relay API request; /metrics itself is not rate limited.
package main
