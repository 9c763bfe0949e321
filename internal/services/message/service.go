package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"braid/internal/domain"
	"braid/internal/protocol/handshake"
	"braid/internal/protocol/ratchet"
	"braid/internal/protocol/senderkey"
	"braid/internal/services/group"
	"braid/internal/trace"
)

var (
	// ErrNoSession indicates there is no stored session with the peer.
	ErrNoSession = errors.New("no session with peer; initiate one first")

	// ErrNoGroupHandler indicates a group payload arrived before a group
	// service was attached.
	ErrNoGroupHandler = errors.New("no group handler attached")
)

// GroupHandler is what the message service needs from the group layer:
// installing distributions unwrapped from pairwise plaintext and opening
// inbound group envelopes.
type GroupHandler interface {
	domain.GroupInstaller
	domain.GroupOpener
}

// Service sends and receives pairwise traffic over the relay.
//
// High-level flow:
//   - Send: if no conversation exists, seed a ratchet from the stored session
//     and attach the hello so the receiver can bootstrap; encrypt with the
//     ratchet and post via the relay.
//   - Receive: fetch wire messages, bootstrap responder sessions as needed,
//     decrypt, retry deferred messages after each success, dispatch group
//     material, then ack what was handled, parked messages included.
type Service struct {
	idStore      domain.IdentityStore
	prekeyStore  domain.PreKeyStore
	ratchetStore domain.RatchetStore
	sessions     domain.SessionService
	relayClient  domain.RelayClient
	groups       GroupHandler
	sink         *trace.Sink
	skippedCap   int

	// deferred holds messages returned as not-yet-processable, per peer.
	// The ratchet itself never buffers; this service is the only queue.
	deferred map[domain.DeviceID][]domain.Envelope
}

// New constructs a message service. skippedCap bounds each conversation's
// skipped-key cache; zero means the default.
func New(
	idStore domain.IdentityStore,
	prekeyStore domain.PreKeyStore,
	ratchetStore domain.RatchetStore,
	sessions domain.SessionService,
	relayClient domain.RelayClient,
	sink *trace.Sink,
	skippedCap int,
) *Service {
	return &Service{
		idStore:      idStore,
		prekeyStore:  prekeyStore,
		ratchetStore: ratchetStore,
		sessions:     sessions,
		relayClient:  relayClient,
		sink:         sink,
		skippedCap:   skippedCap,
		deferred:     make(map[domain.DeviceID][]domain.Envelope),
	}
}

// AttachGroupHandler wires the group layer in after construction, breaking
// the otherwise circular build order between the two services.
func (s *Service) AttachGroupHandler(h GroupHandler) { s.groups = h }

// SendMessage encrypts and posts plaintext to a peer.
//
// Until the peer has answered (no receiving chain yet), every outbound
// envelope carries the handshake hello, so whichever of them arrives first
// lets the receiver bootstrap.
func (s *Service) SendMessage(
	ctx context.Context,
	passphrase string,
	from domain.DeviceID,
	to domain.DeviceID,
	plaintext []byte,
) error {
	conv, found, err := s.ratchetStore.LoadConversation(domain.ConversationID(to))
	if err != nil {
		return err
	}

	var hello *domain.HandshakeHello
	if !found || (!conv.State.Responder && len(conv.State.RecvChainKey) == 0) {
		// Still bootstrapping as initiator: we need the stored session, both
		// to seed the ratchet and to re-attach the hello until the peer has
		// answered.
		sess, ok, err := s.sessions.GetSession(to)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoSession
		}
		if !found {
			// First send: the handshake ephemeral becomes the sending
			// ratchet key, and the first braid step runs against the peer's
			// signed pre-key and ML-KEM pre-key.
			st, err := ratchet.NewInitiator(
				sess.RootKey,
				sess.EphemeralPriv,
				sess.EphemeralPub,
				sess.PeerSignedPreKey,
				sess.PeerPqPreKey,
				s.skippedCap,
			)
			if err != nil {
				return err
			}
			conv = domain.Conversation{Peer: domain.ConversationID(to), State: st}
		}
		h := sess.Hello
		hello = &h
	}

	header, ct, err := ratchet.Encrypt(&conv.State, plaintext)
	if err != nil {
		return err
	}

	// Persist updated ratchet state before sending to avoid reusing a
	// message key if we crash between the two.
	if err := s.ratchetStore.SaveConversation(conv.Peer, conv); err != nil {
		return err
	}

	env := domain.Envelope{
		From:      from,
		To:        to,
		Hello:     hello,
		Header:    header,
		Payload:   ct,
		Timestamp: time.Now().Unix(),
	}
	return s.relayClient.SendMessage(ctx, domain.WireMessage{Pairwise: &env})
}

// ReceiveMessages fetches pending wire messages and decrypts them.
//
// Envelopes are processed in order. Group envelopes go through the group
// handler; replayed or too-old group messages are dropped silently. A
// pairwise envelope that cannot be processed yet is parked in the deferred
// queue and retried after the next successful decrypt from the same peer.
//
// Messages are acked up to the first error, parked messages included; from
// then on a parked message lives only in this Service's memory. A mid-stream
// error leaves the rest queued on the relay.
func (s *Service) ReceiveMessages(
	ctx context.Context,
	passphrase string,
	me domain.DeviceID,
	limit int,
) ([]domain.DecryptedMessage, error) {
	msgs, err := s.relayClient.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DecryptedMessage, 0, len(msgs))
	processed := 0

	for i, msg := range msgs {
		switch {
		case msg.Group != nil:
			dm, err := s.openGroup(*msg.Group)
			switch {
			case err == nil:
				out = append(out, dm)
			case errors.Is(err, senderkey.ErrDiscarded), errors.Is(err, senderkey.ErrMessageTooOld):
				// Replays are indistinguishable from benign late messages.
			default:
				return out, err
			}

		case msg.Pairwise != nil:
			delivered, err := s.processPairwise(passphrase, *msg.Pairwise)
			if err != nil {
				return out, err
			}
			out = append(out, delivered...)

		default:
			// Unknown variant from a newer peer: drop it.
		}
		processed = i + 1
	}

	if processed > 0 {
		if err := s.relayClient.AckMessages(ctx, me, processed); err != nil {
			return out, fmt.Errorf("ack %d messages: %w", processed, err)
		}
	}
	return out, nil
}

// processPairwise decrypts one envelope plus any deferred messages its
// success unblocks. A Deferred result parks the envelope and returns cleanly.
func (s *Service) processPairwise(
	passphrase string,
	env domain.Envelope,
) ([]domain.DecryptedMessage, error) {
	dm, status, err := s.decryptOne(passphrase, env)
	if err != nil {
		return nil, err
	}
	if status == statusDeferred {
		s.deferred[env.From] = append(s.deferred[env.From], env)
		s.sink.Event(trace.Ordering, "message deferred", "peer", trace.ID(env.From.String()))
		return nil, nil
	}

	out := make([]domain.DecryptedMessage, 0, 1)
	if status == statusDelivered {
		out = append(out, dm)
	}

	// A successful decrypt may have installed the epoch a parked message was
	// waiting for; retry the peer's queue until it stops shrinking.
	for {
		queue := s.deferred[env.From]
		if len(queue) == 0 {
			break
		}
		rest := queue[:0]
		delivered := false
		for _, parked := range queue {
			dm, status, err := s.decryptOne(passphrase, parked)
			switch {
			case err != nil:
				return out, err
			case status == statusDeferred:
				rest = append(rest, parked)
			case status == statusDelivered:
				out = append(out, dm)
				delivered = true
			default:
				delivered = true
			}
		}
		s.deferred[env.From] = append([]domain.Envelope(nil), rest...)
		if !delivered {
			break
		}
	}
	return out, nil
}

type decryptStatus int

const (
	statusDelivered decryptStatus = iota
	statusDeferred
	statusControl // group distribution consumed, nothing user-visible
)

// decryptOne bootstraps the conversation if needed, runs the ratchet, and
// dispatches the plaintext.
func (s *Service) decryptOne(
	passphrase string,
	env domain.Envelope,
) (domain.DecryptedMessage, decryptStatus, error) {
	conv, found, err := s.ratchetStore.LoadConversation(domain.ConversationID(env.From))
	if err != nil {
		return domain.DecryptedMessage{}, 0, err
	}

	bootstrapped := false
	if !found {
		if env.Hello == nil {
			// First message from this peer overtook the one carrying the
			// hello; park it until the hello arrives.
			return domain.DecryptedMessage{}, statusDeferred, nil
		}
		st, err := s.bootstrapResponder(passphrase, *env.Hello)
		if err != nil {
			return domain.DecryptedMessage{}, 0, err
		}
		conv = domain.Conversation{Peer: domain.ConversationID(env.From), State: st}
		bootstrapped = true
		s.sink.Event(trace.Session, "responder session bootstrapped",
			"peer", trace.ID(env.From.String()))
	}

	pt, err := ratchet.Decrypt(&conv.State, env.Header, env.Payload)
	switch {
	case errors.Is(err, ratchet.ErrDeferred):
		if bootstrapped {
			// The bootstrap consumed one-time keys; keep the responder state
			// so the retry does not try to consume them again.
			if err := s.ratchetStore.SaveConversation(conv.Peer, conv); err != nil {
				return domain.DecryptedMessage{}, 0, err
			}
		}
		return domain.DecryptedMessage{}, statusDeferred, nil
	case err != nil && bootstrapped && errors.Is(err, ratchet.ErrDecryptFailed):
		// The very first message failing authentication means the two sides
		// never shared a root key.
		return domain.DecryptedMessage{}, 0,
			fmt.Errorf("decrypt from %q: %w", env.From, handshake.ErrHandshakeMismatch)
	case err != nil:
		return domain.DecryptedMessage{}, 0, fmt.Errorf("decrypt from %q: %w", env.From, err)
	}

	if err := s.ratchetStore.SaveConversation(conv.Peer, conv); err != nil {
		return domain.DecryptedMessage{}, 0, fmt.Errorf("save conversation %q: %w", conv.Peer, err)
	}

	if dist, ok := group.DecodeDistribution(pt); ok {
		if s.groups == nil {
			return domain.DecryptedMessage{}, 0, ErrNoGroupHandler
		}
		if err := s.groups.InstallSenderKey(dist); err != nil {
			return domain.DecryptedMessage{}, 0, err
		}
		s.sink.Event(trace.Group, "sender key installed",
			"group", trace.ID(dist.GroupID.String()),
			"sender", trace.ID(dist.Sender.String()))
		return domain.DecryptedMessage{}, statusControl, nil
	}

	return domain.DecryptedMessage{
		From:      env.From,
		To:        env.To,
		Plaintext: pt,
		Timestamp: env.Timestamp,
	}, statusDelivered, nil
}

// bootstrapResponder resolves the keys a hello names, consumes the one-time
// material, and seeds the responder ratchet.
func (s *Service) bootstrapResponder(
	passphrase string,
	hello domain.HandshakeHello,
) (domain.RatchetState, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.RatchetState{}, err
	}

	spkPriv, _, _, ok, err := s.prekeyStore.LoadSignedPreKey(hello.SignedPreKeyID)
	if err != nil {
		return domain.RatchetState{}, err
	}
	if !ok {
		return domain.RatchetState{}, fmt.Errorf("signed pre-key %q not found", hello.SignedPreKeyID)
	}

	var opkPriv *domain.X25519Private
	if hello.OneTimePreKeyID != "" {
		priv, _, ok, err := s.prekeyStore.ConsumeOneTimePreKey(hello.OneTimePreKeyID)
		if err != nil {
			return domain.RatchetState{}, err
		}
		if !ok {
			return domain.RatchetState{}, handshake.ErrMissingOneTimeKey
		}
		opkPriv = &priv
	}

	var pqPair domain.PqKeyPair
	if hello.PqOneTime {
		pair, ok, err := s.prekeyStore.ConsumePqOneTimePreKey(hello.PqKeyID)
		if err != nil {
			return domain.RatchetState{}, err
		}
		if !ok {
			return domain.RatchetState{}, handshake.ErrMissingOneTimeKey
		}
		pqPair = pair
	} else {
		pair, _, ok, err := s.prekeyStore.LoadPqPreKey()
		if err != nil {
			return domain.RatchetState{}, err
		}
		if !ok || pair.KeyID != hello.PqKeyID {
			return domain.RatchetState{}, handshake.ErrMissingOneTimeKey
		}
		pqPair = pair
	}

	rk, err := handshake.ResponderRoot(id, spkPriv, opkPriv, pqPair, hello)
	if err != nil {
		return domain.RatchetState{}, err
	}
	return ratchet.NewResponder(rk, spkPriv, hello.EphemeralKey, pqPair, s.skippedCap)
}

// openGroup routes an inbound group envelope through the group handler.
func (s *Service) openGroup(env domain.GroupEnvelope) (domain.DecryptedMessage, error) {
	if s.groups == nil {
		return domain.DecryptedMessage{}, ErrNoGroupHandler
	}
	return s.groups.OpenGroupMessage(env)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
