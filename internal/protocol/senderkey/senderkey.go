// Package senderkey implements the per-(group, sender) symmetric ratchet for
// group messages.
//
// Each sender owns one chain per group. The chain key advances with the same
// KDF as the pairwise message chains; receivers that miss messages derive
// and cache the keys in between, bounded to the newest fifty. Every message
// is signed with the sender's per-group Ed25519 key so members can reject
// forgeries without pairwise state.
//
// SenderKeyState is NOT safe for concurrent use.
package senderkey

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"strconv"

	"braid/internal/crypto"
	"braid/internal/domain"
)

var (
	// ErrInvalidGroupSignature means the envelope signature failed under the
	// sender's group signing key.
	ErrInvalidGroupSignature = errors.New("senderkey: invalid group message signature")

	// ErrNotSender is returned when a receiver-side state is asked to send.
	ErrNotSender = errors.New("senderkey: state has no signing private key")

	// ErrDecryptFailed covers tag mismatches on group payloads.
	ErrDecryptFailed = errors.New("senderkey: decrypt failed")

	// ErrDiscarded means the counter is behind the chain head and its key is
	// no longer cached: a replay, or a message so late its key was evicted.
	// The two are indistinguishable; both are dropped.
	ErrDiscarded = errors.New("senderkey: message replayed or key consumed")

	// ErrMessageTooOld means the counter is so far behind the chain head that
	// its key can never have survived the cache bound.
	ErrMessageTooOld = errors.New("senderkey: message older than the skipped-key window")
)

// NewSender creates the owning side of a chain: a fresh random chain key and
// a fresh Ed25519 signing pair.
func NewSender(group domain.GroupID, sender domain.DeviceID, skippedCap int) (domain.SenderKeyState, error) {
	ck := make([]byte, 32)
	if _, err := rand.Read(ck); err != nil {
		return domain.SenderKeyState{}, err
	}
	sigPriv, sigPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.SenderKeyState{}, err
	}
	return domain.SenderKeyState{
		GroupID:     group,
		Sender:      sender,
		SigningPub:  sigPub,
		SigningPriv: &sigPriv,
		ChainKey:    ck,
		Skipped:     domain.NewSkippedKeyCache(skippedCap),
	}, nil
}

// NewReceiver installs the receiving side of a chain from a distribution
// record delivered over the pairwise channel.
func NewReceiver(dist domain.SenderKeyDistribution, skippedCap int) domain.SenderKeyState {
	return domain.SenderKeyState{
		GroupID:    dist.GroupID,
		Sender:     dist.Sender,
		SigningPub: dist.SigningPub,
		ChainKey:   append([]byte(nil), dist.ChainKey...),
		Skipped:    domain.NewSkippedKeyCache(skippedCap),
	}
}

// Seal encrypts plaintext at the current counter, advances the chain, and
// signs the payload. The wire counter is the pre-increment value.
func Seal(st *domain.SenderKeyState, plaintext []byte) (counter uint32, signature, payload []byte, err error) {
	if st.SigningPriv == nil {
		return 0, nil, nil, ErrNotSender
	}
	mk, next := crypto.KdfChain(st.ChainKey)
	counter = st.Counter

	payload, err = crypto.Seal(mk, plaintext, messageAD(st.GroupID, st.Sender, counter))
	crypto.Wipe(mk)
	if err != nil {
		return 0, nil, nil, err
	}

	st.ChainKey = next
	st.Counter++
	signature = crypto.SignEd25519(*st.SigningPriv, payload)
	return counter, signature, payload, nil
}

// Open verifies the signature, locates or derives the message key for the
// counter, and decrypts. Counters ahead of the chain head advance it,
// caching the keys in between; counters behind it are served from the cache
// exactly once.
func Open(st *domain.SenderKeyState, counter uint32, signature, payload []byte) ([]byte, error) {
	if !crypto.VerifyEd25519(st.SigningPub, payload, signature) {
		return nil, ErrInvalidGroupSignature
	}
	ad := messageAD(st.GroupID, st.Sender, counter)

	if counter < st.Counter {
		mk, ok := st.Skipped.Get(skippedID(counter))
		if !ok {
			if counter+uint32(st.Skipped.Cap()) < st.Counter {
				return nil, ErrMessageTooOld
			}
			return nil, ErrDiscarded
		}
		pt, err := crypto.Open(mk, payload, ad)
		if err != nil {
			return nil, ErrDecryptFailed
		}
		st.Skipped.Take(skippedID(counter))
		crypto.Wipe(mk)
		return pt, nil
	}

	for st.Counter < counter {
		mk, next := crypto.KdfChain(st.ChainKey)
		st.Skipped.Put(skippedID(st.Counter), mk)
		st.ChainKey = next
		st.Counter++
	}

	mk, next := crypto.KdfChain(st.ChainKey)
	pt, err := crypto.Open(mk, payload, ad)
	crypto.Wipe(mk)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	st.ChainKey = next
	st.Counter++
	return pt, nil
}

// messageAD binds the group, the sender, and the counter into the AEAD.
func messageAD(group domain.GroupID, sender domain.DeviceID, counter uint32) []byte {
	gid := []byte(group)
	sid := []byte(sender)
	out := make([]byte, 0, len(gid)+len(sid)+12)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(gid)))
	out = append(out, gid...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(sid)))
	out = append(out, sid...)
	out = binary.LittleEndian.AppendUint32(out, counter)
	return out
}

func skippedID(counter uint32) string {
	return strconv.FormatUint(uint64(counter), 10)
}
