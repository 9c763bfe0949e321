// Package kem wraps the circl ML-KEM implementations behind the parameter
// sets braid supports. The parameter set is chosen once at device creation
// and carried on every PQ public record; mixing sets is an error, not a
// negotiation.
package kem

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem512"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"braid/internal/crypto"
	"braid/internal/domain"
)

var (
	// ErrUnsupportedParameter is returned for a parameter set braid does not know.
	ErrUnsupportedParameter = errors.New("kem: unsupported ML-KEM parameter set")
	// ErrInvalidPublicKey is returned when encapsulation-key bytes do not parse.
	ErrInvalidPublicKey = errors.New("kem: invalid encapsulation key")
	// ErrInvalidPrivateKey is returned when decapsulation-key bytes do not parse.
	ErrInvalidPrivateKey = errors.New("kem: invalid decapsulation key")
	// ErrDecapsulation is returned when a ciphertext cannot be decapsulated.
	ErrDecapsulation = errors.New("kem: decapsulation failed")
)

// Scheme returns the circl scheme for a parameter set.
func Scheme(param domain.PqParameterSet) (kem.Scheme, error) {
	switch param {
	case domain.MLKem512:
		return mlkem512.Scheme(), nil
	case domain.MLKem768:
		return mlkem768.Scheme(), nil
	case domain.MLKem1024:
		return mlkem1024.Scheme(), nil
	}
	return nil, ErrUnsupportedParameter
}

// GenerateKeyPair creates a fresh ML-KEM pair for param. The key id is the
// base64 of the packed encapsulation key, so equal keys share an id.
func GenerateKeyPair(param domain.PqParameterSet) (domain.PqKeyPair, error) {
	scheme, err := Scheme(param)
	if err != nil {
		return domain.PqKeyPair{}, err
	}
	seed := make([]byte, scheme.SeedSize())
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return domain.PqKeyPair{}, err
	}
	pub, priv := scheme.DeriveKeyPair(seed)
	crypto.Wipe(seed)

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return domain.PqKeyPair{}, err
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return domain.PqKeyPair{}, err
	}
	return domain.PqKeyPair{
		Param:   param,
		KeyID:   domain.PqKeyID(crypto.B64(pubBytes)),
		Public:  pubBytes,
		Private: privBytes,
	}, nil
}

// Encapsulate derives a fresh shared secret for the peer's encapsulation key
// and returns the ciphertext carrying it.
func Encapsulate(pub domain.PqPublicKey) (ciphertext, sharedSecret []byte, err error) {
	scheme, err := Scheme(pub.Param)
	if err != nil {
		return nil, nil, err
	}
	if len(pub.Bytes) != scheme.PublicKeySize() {
		return nil, nil, ErrInvalidPublicKey
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(pub.Bytes)
	if err != nil {
		return nil, nil, ErrInvalidPublicKey
	}
	seed := make([]byte, scheme.EncapsulationSeedSize())
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, nil, err
	}
	ct, ss, err := scheme.EncapsulateDeterministically(pk, seed)
	crypto.Wipe(seed)
	if err != nil {
		return nil, nil, err
	}
	return ct, ss, nil
}

// Decapsulate recovers the shared secret from ciphertext with our pair.
func Decapsulate(pair domain.PqKeyPair, ciphertext []byte) ([]byte, error) {
	scheme, err := Scheme(pair.Param)
	if err != nil {
		return nil, err
	}
	if len(pair.Private) != scheme.PrivateKeySize() {
		return nil, ErrInvalidPrivateKey
	}
	if len(ciphertext) != scheme.CiphertextSize() {
		return nil, ErrDecapsulation
	}
	sk, err := scheme.UnmarshalBinaryPrivateKey(pair.Private)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	ss, err := scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, ErrDecapsulation
	}
	return ss, nil
}
