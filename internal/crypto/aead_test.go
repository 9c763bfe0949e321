package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"braid/internal/crypto"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x10}, crypto.AEADKeySize)
	ad := []byte("header")
	pt := []byte("hello, world")

	payload, err := crypto.Seal(key, pt, ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(payload) != crypto.NonceSize+len(pt)+crypto.TagSize {
		t.Fatalf("payload length %d, want %d", len(payload), crypto.NonceSize+len(pt)+crypto.TagSize)
	}

	got, err := crypto.Open(key, payload, ad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("got %q, want %q", got, pt)
	}
}

func TestOpen_RejectsMutatedPayload(t *testing.T) {
	key := bytes.Repeat([]byte{0x20}, crypto.AEADKeySize)
	payload, err := crypto.Seal(key, []byte("secret"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for i := 0; i < len(payload); i++ {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		if _, err := crypto.Open(key, mutated, nil); !errors.Is(err, crypto.ErrAEADOpen) {
			t.Fatalf("byte %d: mutation accepted", i)
		}
	}
}

func TestOpen_RejectsMutatedAD(t *testing.T) {
	key := bytes.Repeat([]byte{0x30}, crypto.AEADKeySize)
	ad := []byte("bound header")
	payload, err := crypto.Seal(key, []byte("secret"), ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	bad := append([]byte(nil), ad...)
	bad[0] ^= 0x01
	if _, err := crypto.Open(key, payload, bad); !errors.Is(err, crypto.ErrAEADOpen) {
		t.Fatalf("mutated AD accepted")
	}
}

func TestSeal_FreshNoncePerCall(t *testing.T) {
	key := bytes.Repeat([]byte{0x40}, crypto.AEADKeySize)
	a, err := crypto.Seal(key, []byte("x"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, err := crypto.Seal(key, []byte("x"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(a[:crypto.NonceSize], b[:crypto.NonceSize]) {
		t.Fatalf("nonce reused across Seal calls")
	}
}

func TestOpen_ShortPayload(t *testing.T) {
	key := bytes.Repeat([]byte{0x50}, crypto.AEADKeySize)
	if _, err := crypto.Open(key, make([]byte, crypto.NonceSize), nil); !errors.Is(err, crypto.ErrAEADOpen) {
		t.Fatalf("short payload accepted")
	}
}
