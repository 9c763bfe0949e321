package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"

	"braid/internal/crypto"
	"braid/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required
	// for the at-rest passphrase.
	minPassphraseLength = 12

	// mnemonicEntropyBits sizes the recovery phrase (12 words).
	mnemonicEntropyBits = 128

	hkdfInfoSigning   = "braid/identity/signing/v1"
	hkdfInfoAgreement = "braid/identity/agreement/v1"
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrInvalidMnemonic is returned when a recovery phrase fails checksum
	// validation.
	ErrInvalidMnemonic = errors.New("invalid recovery mnemonic")
)

// Service manages identity key creation and access using a backing store.
//
// The identity contains:
//   - An Ed25519 pair for signing (pre-keys, sender-key messages).
//   - An X25519 pair for agreement (handshake).
//
// Both derive deterministically from the mnemonic seed, so the phrase alone
// recovers the device.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// CreateDevice generates a fresh identity for device under param, saves it
// encrypted with the passphrase, and returns it with a short fingerprint and
// the one-time-displayed recovery mnemonic.
func (s *Service) CreateDevice(
	passphrase string,
	device domain.DeviceID,
	param domain.PqParameterSet,
) (domain.DeviceIdentity, domain.Fingerprint, string, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.DeviceIdentity{}, "", "", ErrWeakPassphrase
	}

	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return domain.DeviceIdentity{}, "", "", err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return domain.DeviceIdentity{}, "", "", err
	}

	id, fp, err := s.buildAndStore(passphrase, device, param, mnemonic)
	if err != nil {
		return domain.DeviceIdentity{}, "", "", err
	}
	return id, fp, mnemonic, nil
}

// RecoverDevice rebuilds the identity from a recovery mnemonic and saves it
// under the (possibly new) passphrase.
func (s *Service) RecoverDevice(
	passphrase string,
	device domain.DeviceID,
	param domain.PqParameterSet,
	mnemonic string,
) (domain.DeviceIdentity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.DeviceIdentity{}, "", ErrWeakPassphrase
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return domain.DeviceIdentity{}, "", ErrInvalidMnemonic
	}
	return s.buildAndStore(passphrase, device, param, mnemonic)
}

// LoadIdentity decrypts and returns the stored identity.
func (s *Service) LoadIdentity(passphrase string) (domain.DeviceIdentity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the short fingerprint of the stored identity.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return fingerprint(id), nil
}

func (s *Service) buildAndStore(
	passphrase string,
	device domain.DeviceID,
	param domain.PqParameterSet,
	mnemonic string,
) (domain.DeviceIdentity, domain.Fingerprint, error) {
	seed := bip39.NewSeed(mnemonic, "")
	defer crypto.Wipe(seed)

	signingSeed, err := expandSeed(seed, hkdfInfoSigning)
	if err != nil {
		return domain.DeviceIdentity{}, "", err
	}
	agreementSeed, err := expandSeed(seed, hkdfInfoAgreement)
	if err != nil {
		return domain.DeviceIdentity{}, "", err
	}

	signingPriv, signingPub := crypto.Ed25519FromSeed(signingSeed)
	agreementPriv, agreementPub, err := crypto.X25519FromSeed(agreementSeed)
	crypto.Wipe(signingSeed)
	crypto.Wipe(agreementSeed)
	if err != nil {
		return domain.DeviceIdentity{}, "", err
	}

	id := domain.DeviceIdentity{
		DeviceID:      device,
		Param:         param,
		SigningPub:    signingPub,
		SigningPriv:   signingPriv,
		AgreementPub:  agreementPub,
		AgreementPriv: agreementPriv,
		CreatedUTC:    time.Now().Unix(),
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.DeviceIdentity{}, "", err
	}
	return id, fingerprint(id), nil
}

func fingerprint(id domain.DeviceIdentity) domain.Fingerprint {
	return domain.Fingerprint(crypto.Fingerprint(id.AgreementPub.Slice()))
}

func expandSeed(seed []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, 32)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// isSecurePassphrase checks length and character-class coverage.
func isSecurePassphrase(passphrase string) bool {
	if len(passphrase) < minPassphraseLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
