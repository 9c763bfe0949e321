// Package trace is the observability sink for the protocol core. Emission is
// best-effort: a nil sink drops everything at zero cost, so the core can
// trace unconditionally and the host decides at wiring time whether events
// go anywhere.
//
// Events are tagged by category. Identifiers are shortened to fingerprints
// before they reach the log; plaintext and key material never do.
package trace

import (
	"crypto/sha256"
	"log/slog"

	"github.com/mr-tron/base58"
)

// Category tags an event with the subsystem that produced it.
type Category string

const (
	// Session covers handshake and session lifecycle events.
	Session Category = "session"
	// Ratchet covers epoch switches and chain advances.
	Ratchet Category = "ratchet"
	// Ordering covers deferral, retries, and skipped-key activity.
	Ordering Category = "ordering"
	// Group covers sender-key distribution and group traffic.
	Group Category = "group"
)

// Sink forwards protocol events to a slog handler. The zero value and the
// nil pointer are both disabled sinks.
type Sink struct {
	log *slog.Logger
}

// NewSink returns a sink writing through logger. A nil logger disables the sink.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		return nil
	}
	return &Sink{log: logger}
}

// Event emits one protocol event. Attrs follow the slog key/value convention.
func (s *Sink) Event(cat Category, msg string, attrs ...any) {
	if s == nil || s.log == nil {
		return
	}
	s.log.With("category", string(cat)).Debug(msg, attrs...)
}

// ID shortens an identifier for logging: a truncated SHA-256 in base58.
// Raw device ids, group ids, and key bytes go through here so the log never
// carries a value that can be joined back to directory state.
func ID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base58.Encode(sum[:6])
}
