package prekey

import (
	"errors"
	"fmt"
	"time"

	"braid/internal/crypto"
	"braid/internal/crypto/kem"
	"braid/internal/domain"
)

// DefaultOneTimeCount is how many classical and ML-KEM one-time pre-keys a
// device generates at birth.
const DefaultOneTimeCount = 10

var (
	errNoSignedPreKey = errors.New("no signed pre-key available; generate pre-keys first")
	errNoPqPreKey     = errors.New("no pq pre-key available; generate pre-keys first")
)

// Service manages pre-key pairs and builds the published key set.
type Service struct {
	ids domain.IdentityStore
	ps  domain.PreKeyStore
	bs  domain.PublishedKeysStore
}

// New constructs a pre-key service over the given stores.
func New(ids domain.IdentityStore, ps domain.PreKeyStore, bs domain.PublishedKeysStore) *Service {
	return &Service{ids: ids, ps: ps, bs: bs}
}

// GenerateAndStorePreKeys creates a signed pre-key, the ML-KEM identity
// pre-key, and oneTimeCount classical and ML-KEM one-time pairs, marking the
// new signed pre-key as current. One-time key ids are the base64 of their
// public bytes; both pre-key signatures come from the identity signing key.
func (s *Service) GenerateAndStorePreKeys(passphrase string, oneTimeCount int) error {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	if oneTimeCount < 0 {
		oneTimeCount = DefaultOneTimeCount
	}

	// Signed pre-key
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		return err
	}
	spkID := domain.SignedPreKeyID(fmt.Sprintf("spk-%d", time.Now().Unix()))
	spkSig := crypto.SignEd25519(id.SigningPriv, spkPub.Slice())
	if err := s.ps.SaveSignedPreKey(spkID, spkPriv, spkPub, spkSig); err != nil {
		return err
	}
	if err := s.ps.SetCurrentSignedPreKeyID(spkID); err != nil {
		return err
	}

	// Classical one-time pre-keys
	pairs := make([]domain.OneTimePreKeyPair, 0, oneTimeCount)
	for i := 0; i < oneTimeCount; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return err
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{
			ID:   domain.OneTimePreKeyID(crypto.B64(pub.Slice())),
			Priv: priv,
			Pub:  pub,
		})
	}
	if err := s.ps.SaveOneTimePreKeys(pairs); err != nil {
		return err
	}

	// ML-KEM identity pre-key, reused until the next rotation.
	pqPair, err := kem.GenerateKeyPair(id.Param)
	if err != nil {
		return err
	}
	pqSig := crypto.SignEd25519(id.SigningPriv, pqPair.Public)
	if err := s.ps.SavePqPreKey(pqPair, pqSig); err != nil {
		return err
	}

	// ML-KEM one-time pre-keys
	pqPairs := make([]domain.PqKeyPair, 0, oneTimeCount)
	for i := 0; i < oneTimeCount; i++ {
		p, err := kem.GenerateKeyPair(id.Param)
		if err != nil {
			return err
		}
		pqPairs = append(pqPairs, p)
	}
	return s.ps.SavePqOneTimePreKeys(pqPairs)
}

// PublishedKeys assembles the key set to upload from the current signed
// pre-key, the remaining one-time publics, and the ML-KEM pre-keys, caching
// the result.
func (s *Service) PublishedKeys(passphrase string) (domain.PublishedKeys, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.PublishedKeys{}, err
	}

	spkID, ok, err := s.ps.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PublishedKeys{}, err
	}
	if !ok {
		return domain.PublishedKeys{}, errNoSignedPreKey
	}
	_, spkPub, spkSig, found, err := s.ps.LoadSignedPreKey(spkID)
	if err != nil {
		return domain.PublishedKeys{}, err
	}
	if !found {
		return domain.PublishedKeys{}, errNoSignedPreKey
	}

	oneTime, err := s.ps.ListOneTimePreKeyPublics()
	if err != nil {
		return domain.PublishedKeys{}, err
	}

	pqPair, pqSig, pqFound, err := s.ps.LoadPqPreKey()
	if err != nil {
		return domain.PublishedKeys{}, err
	}
	if !pqFound {
		return domain.PublishedKeys{}, errNoPqPreKey
	}
	pqOneTime, err := s.ps.ListPqOneTimePreKeyPublics()
	if err != nil {
		return domain.PublishedKeys{}, err
	}

	keys := domain.PublishedKeys{
		DeviceID:              id.DeviceID,
		SigningKey:            id.SigningPub,
		IdentityKey:           id.AgreementPub,
		SignedPreKeyID:        spkID,
		SignedPreKey:          spkPub,
		SignedPreKeySignature: spkSig,
		OneTimePreKeys:        oneTime,
		PqPreKey:              pqPair.PublicKey(),
		PqPreKeySignature:     pqSig,
		PqOneTimePreKeys:      pqOneTime,
	}
	if err := s.bs.SavePublishedKeys(keys); err != nil {
		return domain.PublishedKeys{}, err
	}
	return keys, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
