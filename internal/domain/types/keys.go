package types

import "fmt"

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is all zero bytes (unset).
func (p X25519Public) IsZero() bool { return p == X25519Public{} }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key (seed ‖ public).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// MustX25519Public copies b into a fixed-size public key and panics on bad length.
func MustX25519Public(b []byte) X25519Public {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 public: want 32 bytes, got %d", len(b)))
	}
	var out X25519Public
	copy(out[:], b)
	return out
}

// MustX25519Private copies b into a fixed-size private key and panics on bad length.
func MustX25519Private(b []byte) X25519Private {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 private: want 32 bytes, got %d", len(b)))
	}
	var out X25519Private
	copy(out[:], b)
	return out
}

// PqPublicKey is an ML-KEM encapsulation key together with its id and the
// parameter set it belongs to. All three travel together on the wire.
type PqPublicKey struct {
	Param PqParameterSet `json:"param"`
	KeyID PqKeyID        `json:"key_id"`
	Bytes []byte         `json:"bytes"`
}

// PqKeyPair is the full ML-KEM key pair held locally. Private holds the
// packed decapsulation key.
type PqKeyPair struct {
	Param   PqParameterSet `json:"param"`
	KeyID   PqKeyID        `json:"key_id"`
	Public  []byte         `json:"public"`
	Private []byte         `json:"private"`
}

// PublicKey returns the shareable half of the pair.
func (p PqKeyPair) PublicKey() PqPublicKey {
	return PqPublicKey{Param: p.Param, KeyID: p.KeyID, Bytes: p.Public}
}
