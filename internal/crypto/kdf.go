package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Labels bound into the key derivation steps. Changing any of these breaks
// interop with previously serialized state.
const (
	infoRootClassical = "Signal-Root"
	infoRootHybrid    = "Signal-Braid-Root"
	infoHandshake     = "X3DH"
)

// KdfChain advances a 32-byte chain key one step, returning the message key
// and the next chain key: (HMAC(ck, 0x01), HMAC(ck, 0x02)).
func KdfChain(ck []byte) (mk, next []byte) {
	return hmacSum(ck, []byte{0x01}), hmacSum(ck, []byte{0x02})
}

// KdfRootClassical derives a new root and chain key from the previous root
// and a Diffie–Hellman output: HKDF(ikm=dh, salt=rk) split 32/32.
func KdfRootClassical(rk, dh []byte) (newRK, ck []byte) {
	return hkdfSplit64(dh, rk, infoRootClassical)
}

// KdfRootHybrid is the braid step: the new root depends on the previous
// root, the classical DH output, and the KEM shared secret.
func KdfRootHybrid(rk, dh, pq []byte) (newRK, ck []byte) {
	ikm := make([]byte, 0, len(rk)+len(dh)+len(pq))
	ikm = append(ikm, rk...)
	ikm = append(ikm, dh...)
	ikm = append(ikm, pq...)
	newRK, ck = hkdfSplit64(ikm, nil, infoRootHybrid)
	Wipe(ikm)
	return newRK, ck
}

// DeriveHandshakeSecret reduces the concatenated handshake secrets to the
// 32-byte initial root key. The salt is a zero block of hash length.
func DeriveHandshakeSecret(ikm []byte) []byte {
	salt := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, ikm, salt, []byte(infoHandshake))
	out := make([]byte, 32)
	_, _ = io.ReadFull(r, out)
	return out
}

func hkdfSplit64(ikm, salt []byte, info string) (a, b []byte) {
	r := hkdf.New(sha256.New, ikm, salt, []byte(info))
	a = make([]byte, 32)
	b = make([]byte, 32)
	_, _ = io.ReadFull(r, a)
	_, _ = io.ReadFull(r, b)
	return a, b
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
