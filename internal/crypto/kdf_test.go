package crypto_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"braid/internal/crypto"
)

func TestKdfChain_MatchesHMACConstruction(t *testing.T) {
	ck := bytes.Repeat([]byte{0x11}, 32)

	mk, next := crypto.KdfChain(ck)

	wantMK := hmacSum(ck, []byte{0x01})
	wantNext := hmacSum(ck, []byte{0x02})
	if !bytes.Equal(mk, wantMK) {
		t.Fatalf("message key mismatch")
	}
	if !bytes.Equal(next, wantNext) {
		t.Fatalf("next chain key mismatch")
	}
	if bytes.Equal(mk, next) {
		t.Fatalf("message key equals chain key")
	}
}

func TestKdfChain_Deterministic(t *testing.T) {
	ck := bytes.Repeat([]byte{0x42}, 32)
	mk1, next1 := crypto.KdfChain(ck)
	mk2, next2 := crypto.KdfChain(ck)
	if !bytes.Equal(mk1, mk2) || !bytes.Equal(next1, next2) {
		t.Fatalf("KdfChain is not deterministic")
	}
}

func TestKdfRootClassical_SplitsAndDiffers(t *testing.T) {
	rk := bytes.Repeat([]byte{0x01}, 32)
	dh := bytes.Repeat([]byte{0x02}, 32)

	newRK, ck := crypto.KdfRootClassical(rk, dh)
	if len(newRK) != 32 || len(ck) != 32 {
		t.Fatalf("want 32/32 split, got %d/%d", len(newRK), len(ck))
	}
	if bytes.Equal(newRK, rk) {
		t.Fatalf("root did not advance")
	}
	if bytes.Equal(newRK, ck) {
		t.Fatalf("root and chain key are equal")
	}
}

func TestKdfRootHybrid_DependsOnEveryInput(t *testing.T) {
	rk := bytes.Repeat([]byte{0x01}, 32)
	dh := bytes.Repeat([]byte{0x02}, 32)
	pq := bytes.Repeat([]byte{0x03}, 32)

	base, _ := crypto.KdfRootHybrid(rk, dh, pq)

	for name, alt := range map[string][3][]byte{
		"root": {flip(rk), dh, pq},
		"dh":   {rk, flip(dh), pq},
		"pq":   {rk, dh, flip(pq)},
	} {
		got, _ := crypto.KdfRootHybrid(alt[0], alt[1], alt[2])
		if bytes.Equal(base, got) {
			t.Fatalf("changing %s input did not change the root", name)
		}
	}
}

func TestDeriveHandshakeSecret_Length(t *testing.T) {
	secret := crypto.DeriveHandshakeSecret(bytes.Repeat([]byte{0x55}, 128))
	if len(secret) != 32 {
		t.Fatalf("want 32 bytes, got %d", len(secret))
	}
}

func flip(b []byte) []byte {
	out := append([]byte(nil), b...)
	out[0] ^= 0xFF
	return out
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
