package handshake

import (
	"errors"

	"braid/internal/crypto"
	"braid/internal/crypto/kem"
	"braid/internal/domain"
)

var (
	// ErrInvalidSignedPreKeySignature means the bundle's signed pre-key was not
	// signed by the bundle's signing key.
	ErrInvalidSignedPreKeySignature = errors.New("handshake: invalid signed pre-key signature")

	// ErrInvalidPqPreKeySignature means the ML-KEM pre-key signature failed.
	// The check runs whenever a PQ pre-key is present, one-time key or not.
	ErrInvalidPqPreKeySignature = errors.New("handshake: invalid pq pre-key signature")

	// ErrMissingOneTimeKey means the hello named a one-time key the responder
	// no longer holds.
	ErrMissingOneTimeKey = errors.New("handshake: one-time pre-key already consumed")

	// ErrPqDecapsulationFailed means the hello's KEM ciphertext did not
	// decapsulate under the named pre-key.
	ErrPqDecapsulationFailed = errors.New("handshake: pq decapsulation failed")

	// ErrHandshakeMismatch means the two sides did not arrive at the same root
	// key. The responder cannot compare roots directly; the mismatch surfaces
	// when the first inbound message fails authentication.
	ErrHandshakeMismatch = errors.New("handshake: derived root keys differ")

	errNoPqPreKey = errors.New("handshake: bundle has no pq pre-key")
)

// InitiatorResult is everything the initiator keeps from a successful
// handshake: the root key, the ephemeral pair that doubles as the first
// sending ratchet key, and the hello to attach to the first envelope.
type InitiatorResult struct {
	RootKey       []byte
	EphemeralPriv domain.X25519Private
	EphemeralPub  domain.X25519Public
	PqTarget      domain.PqPublicKey
	Hello         domain.HandshakeHello
}

// InitiatorRoot derives the session root key from a fetched bundle.
//
// The four classical shares are computed in fixed order: DH(IKa, SPKb),
// DH(EKa, IKb), DH(EKa, SPKb), DH(EKa, OPKb). The last is omitted when the
// bundle carries no one-time key. The KEM secret is appended afterwards, so
// the root depends on both components.
func InitiatorRoot(id domain.DeviceIdentity, bundle domain.PreKeyBundle) (InitiatorResult, error) {
	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.SignedPreKey.Slice(), bundle.SignedPreKeySignature) {
		return InitiatorResult{}, ErrInvalidSignedPreKeySignature
	}
	if len(bundle.PqPreKey.Bytes) == 0 {
		return InitiatorResult{}, errNoPqPreKey
	}
	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.PqPreKey.Bytes, bundle.PqPreKeySignature) {
		return InitiatorResult{}, ErrInvalidPqPreKeySignature
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return InitiatorResult{}, err
	}

	dh1, err := crypto.DH(id.AgreementPriv, bundle.SignedPreKey)
	if err != nil {
		return InitiatorResult{}, err
	}
	dh2, err := crypto.DH(ephPriv, bundle.IdentityKey)
	if err != nil {
		return InitiatorResult{}, err
	}
	dh3, err := crypto.DH(ephPriv, bundle.SignedPreKey)
	if err != nil {
		return InitiatorResult{}, err
	}

	ikm := make([]byte, 0, 32*5+64)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)
	ikm = append(ikm, dh3[:]...)

	var opkID domain.OneTimePreKeyID
	if bundle.OneTimePreKey != nil {
		dh4, err := crypto.DH(ephPriv, bundle.OneTimePreKey.Pub)
		if err != nil {
			return InitiatorResult{}, err
		}
		ikm = append(ikm, dh4[:]...)
		opkID = bundle.OneTimePreKey.ID
	}

	pqTarget := bundle.PqPreKey
	pqOneTime := false
	if bundle.PqOneTimePreKey != nil {
		pqTarget = *bundle.PqOneTimePreKey
		pqOneTime = true
	}
	ct, ss, err := kem.Encapsulate(pqTarget)
	if err != nil {
		return InitiatorResult{}, err
	}
	ikm = append(ikm, ss...)
	crypto.Wipe(ss)

	root := crypto.DeriveHandshakeSecret(ikm)
	crypto.Wipe(ikm)

	return InitiatorResult{
		RootKey:       root,
		EphemeralPriv: ephPriv,
		EphemeralPub:  ephPub,
		PqTarget:      pqTarget,
		Hello: domain.HandshakeHello{
			InitiatorIdentityKey: id.AgreementPub,
			EphemeralKey:         ephPub,
			SignedPreKeyID:       bundle.SignedPreKeyID,
			OneTimePreKeyID:      opkID,
			PqKeyID:              pqTarget.KeyID,
			PqCiphertext:         ct,
			PqOneTime:            pqOneTime,
		},
	}, nil
}

// ResponderRoot mirrors InitiatorRoot on the receiving side. The caller has
// already resolved the named keys: spkPriv is the signed pre-key private,
// opkPriv the consumed one-time private (nil when the hello named none), and
// pqPair the ML-KEM pair the hello's ciphertext targets.
func ResponderRoot(
	id domain.DeviceIdentity,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	pqPair domain.PqKeyPair,
	hello domain.HandshakeHello,
) ([]byte, error) {
	dh1, err := crypto.DH(spkPriv, hello.InitiatorIdentityKey)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(id.AgreementPriv, hello.EphemeralKey)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(spkPriv, hello.EphemeralKey)
	if err != nil {
		return nil, err
	}

	ikm := make([]byte, 0, 32*5+64)
	ikm = append(ikm, dh1[:]...)
	ikm = append(ikm, dh2[:]...)
	ikm = append(ikm, dh3[:]...)

	if opkPriv != nil {
		dh4, err := crypto.DH(*opkPriv, hello.EphemeralKey)
		if err != nil {
			return nil, err
		}
		ikm = append(ikm, dh4[:]...)
	}

	ss, err := kem.Decapsulate(pqPair, hello.PqCiphertext)
	if err != nil {
		return nil, ErrPqDecapsulationFailed
	}
	ikm = append(ikm, ss...)
	crypto.Wipe(ss)

	root := crypto.DeriveHandshakeSecret(ikm)
	crypto.Wipe(ikm)
	return root, nil
}
