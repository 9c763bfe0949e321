package ratchet

import (
	"bytes"
	"errors"

	"braid/internal/crypto"
	"braid/internal/crypto/kem"
	"braid/internal/domain"
)

var (
	// ErrSendingChainEmpty is returned by Encrypt before the first send step.
	ErrSendingChainEmpty = errors.New("ratchet: sending chain not initialised")

	// ErrDeferred is a soft signal: the message opens a new remote epoch but
	// carries no KEM ciphertext, so it was overtaken by the message that does.
	// The caller should hold it and retry after the next successful decrypt.
	ErrDeferred = errors.New("ratchet: message deferred until its epoch arrives")

	// ErrDecryptFailed covers tag mismatches: header tampering, wrong keys,
	// replays of consumed messages, and late messages whose keys were evicted.
	ErrDecryptFailed = errors.New("ratchet: decrypt failed")

	// ErrMissingPqCiphertext means a header staged a fresh KEM key for a new
	// epoch but carried no ciphertext, which no honest sender produces.
	ErrMissingPqCiphertext = errors.New("ratchet: epoch header without kem ciphertext")

	// ErrInvalidPqPublic means the peer's KEM key is absent or unusable.
	ErrInvalidPqPublic = errors.New("ratchet: invalid peer kem key")
)

// NewInitiator seeds a ratchet from a completed handshake on the initiating
// side. The handshake ephemeral becomes the first sending ratchet key
// without rotation, and the first braid step runs immediately, so the state is
// ready to encrypt.
//
// responderRatchetPub is the peer's signed pre-key: the key the responder
// will feed its first inbound DH with. remotePq is the KEM pre-key the
// handshake encapsulated to.
func NewInitiator(
	rootKey []byte,
	ephPriv domain.X25519Private,
	ephPub domain.X25519Public,
	responderRatchetPub domain.X25519Public,
	remotePq domain.PqPublicKey,
	skippedCap int,
) (domain.RatchetState, error) {
	st := domain.RatchetState{
		RootKey:   append([]byte(nil), rootKey...),
		DHPriv:    ephPriv,
		DHPub:     ephPub,
		PeerDHPub: append([]byte(nil), responderRatchetPub.Slice()...),
		PeerPqPub: &remotePq,
		PqPriv:    domain.PqKeyPair{Param: remotePq.Param},
		Skipped:   domain.NewSkippedKeyCache(skippedCap),
	}
	if err := sendingStep(&st, false); err != nil {
		return domain.RatchetState{}, err
	}
	return st, nil
}

// NewResponder seeds a ratchet on the responding side. The state has no
// chains yet: the first inbound message opens the receiving chain using the
// signed pre-key private, and the sending chain follows in the same step.
//
// initiatorRatchetPub is the ephemeral from the hello; localPq is the ML-KEM
// pair the hello's ciphertext targeted, which the first inbound epoch will
// decapsulate against.
func NewResponder(
	rootKey []byte,
	signedPreKeyPriv domain.X25519Private,
	initiatorRatchetPub domain.X25519Public,
	localPq domain.PqKeyPair,
	skippedCap int,
) (domain.RatchetState, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.RatchetState{}, err
	}
	return domain.RatchetState{
		RootKey:          append([]byte(nil), rootKey...),
		DHPriv:           priv,
		DHPub:            pub,
		PeerDHPub:        append([]byte(nil), initiatorRatchetPub.Slice()...),
		Responder:        true,
		SignedPreKeyPriv: &signedPreKeyPriv,
		PqPriv:           localPq,
		Skipped:          domain.NewSkippedKeyCache(skippedCap),
	}, nil
}

// Encrypt derives the next message key from the sending chain and seals
// plaintext. The header binds the sender ratchet key, the counters, and any
// KEM material staged by the last ratchet step; staging is cleared so the
// material rides exactly one message.
func Encrypt(st *domain.RatchetState, plaintext []byte) (domain.RatchetHeader, []byte, error) {
	if len(st.SendChainKey) == 0 {
		return domain.RatchetHeader{}, nil, ErrSendingChainEmpty
	}

	mk, next := crypto.KdfChain(st.SendChainKey)
	header := domain.RatchetHeader{
		SenderRatchetKey: append([]byte(nil), st.DHPub.Slice()...),
		MessageIndex:     st.SendIndex,
		PreviousLength:   st.PreviousLength,
		PqSenderKey:      st.PendingPqKey,
		PqCiphertext:     st.PendingPqCiphertext,
	}

	ct, err := crypto.Seal(mk, plaintext, EncodeHeaderAD(header))
	crypto.Wipe(mk)
	if err != nil {
		return domain.RatchetHeader{}, nil, err
	}

	st.SendChainKey = next
	st.SendIndex++
	st.PendingPqKey = nil
	st.PendingPqCiphertext = nil
	return header, ct, nil
}

// Decrypt opens a message, handling skipped keys, epoch switches, and
// in-chain skip-ahead.
//
// The order matters: the skipped cache is consulted before the epoch check
// so that old-chain stragglers decrypt after the chain has moved on, and
// again after an epoch switch for messages that were queued before the new
// cache existed.
func Decrypt(st *domain.RatchetState, header domain.RatchetHeader, payload []byte) ([]byte, error) {
	ad := EncodeHeaderAD(header)
	id := cacheID(header.SenderRatchetKey, header.MessageIndex)

	if pt, done, err := openSkipped(st, id, payload, ad); done {
		return pt, err
	}

	if len(st.RecvChainKey) == 0 || !bytes.Equal(st.PeerDHPub, header.SenderRatchetKey) {
		if len(header.PqCiphertext) == 0 {
			if header.PqSenderKey != nil {
				return nil, ErrMissingPqCiphertext
			}
			return nil, ErrDeferred
		}
		if err := receivingStep(st, header); err != nil {
			return nil, err
		}
		if pt, done, err := openSkipped(st, id, payload, ad); done {
			return pt, err
		}
	}

	// Skip ahead within the current chain, caching the keys in between.
	for st.RecvIndex < header.MessageIndex {
		mk, next := crypto.KdfChain(st.RecvChainKey)
		st.Skipped.Put(cacheID(st.PeerDHPub, st.RecvIndex), mk)
		st.RecvChainKey = next
		st.RecvIndex++
	}
	if header.MessageIndex < st.RecvIndex {
		// Behind the chain head and not cached: replayed or evicted.
		return nil, ErrDecryptFailed
	}

	mk, next := crypto.KdfChain(st.RecvChainKey)
	pt, err := crypto.Open(mk, payload, ad)
	crypto.Wipe(mk)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	st.RecvChainKey = next
	st.RecvIndex++
	return pt, nil
}

// openSkipped tries the skipped cache. The entry is consumed only on a
// successful open, atomically with its queue position, so replaying a
// decrypted message finds nothing.
func openSkipped(st *domain.RatchetState, id string, payload, ad []byte) ([]byte, bool, error) {
	mk, ok := st.Skipped.Get(id)
	if !ok {
		return nil, false, nil
	}
	pt, err := crypto.Open(mk, payload, ad)
	if err != nil {
		return nil, true, ErrDecryptFailed
	}
	st.Skipped.Take(id)
	crypto.Wipe(mk)
	return pt, true, nil
}

// receivingStep installs the peer's new ratchet epoch and immediately runs
// the answering send step, staging fresh KEM material for the next outbound
// message.
func receivingStep(st *domain.RatchetState, header domain.RatchetHeader) error {
	if header.PqSenderKey == nil || len(header.SenderRatchetKey) != 32 {
		return ErrInvalidPqPublic
	}

	// Close out the old chain: derive the keys the peer says it sent before
	// switching, so they stay decryptable from the cache.
	if len(st.RecvChainKey) != 0 {
		for st.RecvIndex < header.PreviousLength {
			mk, next := crypto.KdfChain(st.RecvChainKey)
			st.Skipped.Put(cacheID(st.PeerDHPub, st.RecvIndex), mk)
			st.RecvChainKey = next
			st.RecvIndex++
		}
	}

	firstEpoch := st.Responder && len(st.RecvChainKey) == 0 && st.SignedPreKeyPriv != nil

	st.PreviousLength = st.SendIndex
	st.SendIndex = 0
	st.RecvIndex = 0
	st.PeerDHPub = append([]byte(nil), header.SenderRatchetKey...)
	st.PeerPqPub = header.PqSenderKey

	ss, err := kem.Decapsulate(st.PqPriv, header.PqCiphertext)
	if err != nil {
		return ErrDecryptFailed
	}

	ourPriv := st.DHPriv
	if firstEpoch {
		ourPriv = *st.SignedPreKeyPriv
		st.SignedPreKeyPriv = nil
	}
	dh, err := crypto.DH(ourPriv, domain.MustX25519Public(header.SenderRatchetKey))
	if err != nil {
		return err
	}
	st.RootKey, st.RecvChainKey = crypto.KdfRootHybrid(st.RootKey, dh[:], ss)
	crypto.Wipe(dh[:])
	crypto.Wipe(ss)

	return sendingStep(st, true)
}

// sendingStep advances the root for our next outbound chain. It rotates the
// classical ratchet key unless this is the initiator's very first step,
// always rotates the KEM pair, and stages the ciphertext and new KEM public
// for the next message header.
func sendingStep(st *domain.RatchetState, rotateDH bool) error {
	if st.PeerPqPub == nil || len(st.PeerDHPub) != 32 {
		return ErrInvalidPqPublic
	}

	if rotateDH {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return err
		}
		st.DHPriv, st.DHPub = priv, pub
	}

	pqPair, err := kem.GenerateKeyPair(st.PqPriv.Param)
	if err != nil {
		return err
	}
	ct, ss, err := kem.Encapsulate(*st.PeerPqPub)
	if err != nil {
		return ErrInvalidPqPublic
	}
	st.PqPriv = pqPair
	pub := pqPair.PublicKey()
	st.PendingPqKey = &pub
	st.PendingPqCiphertext = ct

	dh, err := crypto.DH(st.DHPriv, domain.MustX25519Public(st.PeerDHPub))
	if err != nil {
		return err
	}
	st.RootKey, st.SendChainKey = crypto.KdfRootHybrid(st.RootKey, dh[:], ss)
	crypto.Wipe(dh[:])
	crypto.Wipe(ss)
	st.SendIndex = 0
	return nil
}
