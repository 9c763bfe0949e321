package crypto

import "crypto/subtle"

// Wipe overwrites b with zeros. Best effort: the GC may have copied the
// slice already, but shortening the window is still worth one line at call
// sites handling chain and message keys.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}
