package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

const (
	// AEADKeySize is the AES-256 key length.
	AEADKeySize = 32
	// NonceSize is the GCM nonce length prepended to every ciphertext.
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16
)

// ErrAEADOpen is returned when authentication fails: a wrong key, a mutated
// ciphertext, or mutated associated data.
var ErrAEADOpen = errors.New("aead: message authentication failed")

// Seal encrypts plaintext under a 32-byte key with AES-256-GCM and a random
// nonce. The output is nonce ‖ ciphertext ‖ tag.
func Seal(key, plaintext, ad []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal. Any mutation of payload or ad fails with ErrAEADOpen.
func Open(key, payload, ad []byte) ([]byte, error) {
	if len(payload) < NonceSize+TagSize {
		return nil, ErrAEADOpen
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, payload[:NonceSize], payload[NonceSize:], ad)
	if err != nil {
		return nil, ErrAEADOpen
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != AEADKeySize {
		return nil, errors.New("aead: key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
