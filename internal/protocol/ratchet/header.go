package ratchet

import (
	"encoding/binary"

	"braid/internal/crypto"
	"braid/internal/domain"
)

// EncodeHeaderAD serializes every header field that influences ratchet state
// into the associated data bound by the message AEAD. The encoding is
// deterministic and length-prefixed, so any single-bit header mutation in
// transit fails the tag check.
//
// Layout: u32-LE len ‖ sender ratchet public, u32-LE N, u32-LE PN, u8 flag
// for the KEM sender key (if set: u32-LE len ‖ key bytes, u32-LE len ‖
// key id, u32-LE len ‖ parameter name), u32-LE len ‖ KEM ciphertext (zero
// length when absent).
func EncodeHeaderAD(h domain.RatchetHeader) []byte {
	out := make([]byte, 0, 64+len(h.PqCiphertext))
	out = appendBytes(out, h.SenderRatchetKey)
	out = binary.LittleEndian.AppendUint32(out, h.MessageIndex)
	out = binary.LittleEndian.AppendUint32(out, h.PreviousLength)
	if h.PqSenderKey != nil {
		out = append(out, 1)
		out = appendBytes(out, h.PqSenderKey.Bytes)
		out = appendBytes(out, []byte(h.PqSenderKey.KeyID))
		out = appendBytes(out, []byte(h.PqSenderKey.Param))
	} else {
		out = append(out, 0)
	}
	out = appendBytes(out, h.PqCiphertext)
	return out
}

func appendBytes(out, b []byte) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b)))
	return append(out, b...)
}

// cacheID is the skipped-key identity: the base64 of the raw ratchet public
// bytes plus the message number. Raw bytes, not a hash, so distinct keys can
// never collide into one epoch.
func cacheID(ratchetPub []byte, n uint32) string {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], n)
	return crypto.B64(ratchetPub) + "|" + crypto.B64(idx[:])
}
