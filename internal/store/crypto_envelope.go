package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// The current supported version of the encrypted blob format stored on disk.
	keystoreFormatVersion = 1

	saltSize = 16
)

var (
	// Returned when the passphrase is incorrect or the ciphertext has been
	// modified / corrupted.
	errWrongPassphrase = errors.New("wrong passphrase or corrupted key material")
)

// blob is the on-disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Time   uint32 `json:"argon_t"`
	Memory uint32 `json:"argon_m"`
	Lanes  uint8  `json:"argon_p"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase with argon2id and seals raw into a JSON
// blob. The nonce is zero; the salt-bound key guarantees uniqueness.
func seal(passphrase string, raw []byte) ([]byte, error) {
	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	t, m, p := argonParamsDefault()
	key := argon2.IDKey([]byte(passphrase), salt[:], t, m, p, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(blob{
		V:      keystoreFormatVersion,
		Salt:   salt[:],
		Time:   t,
		Memory: m,
		Lanes:  p,
		Cipher: ct,
	})
}

// open reverses seal using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, err
	}
	if bl.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}

	key := argon2.IDKey([]byte(passphrase), bl.Salt, bl.Time, bl.Memory, bl.Lanes, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

// Tunables for argon2id key derivation.
func argonParamsDefault() (t, m uint32, p uint8) { return 1, 1 << 16, 4 }
