package crypto

import "encoding/base64"

// B64 returns standard base64 encoding without newlines. Raw public-key bytes
// encoded this way serve as cache and pre-key identifiers.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }
