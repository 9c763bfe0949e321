package session

import (
	"context"
	"time"

	"braid/internal/domain"
	"braid/internal/protocol/handshake"
	"braid/internal/trace"
)

// Service performs the hybrid handshake and persists sessions.
//
// A session represents the shared root key and associated material needed
// to open a ratchet conversation with a peer. This service handles:
//   - Retrieving our own identity keys.
//   - Fetching the peer's pre-key bundle from the relay.
//   - Running the hybrid key agreement as the initiator.
//   - Persisting the resulting session for later message encryption.
type Service struct {
	idStore      domain.IdentityStore
	sessionStore domain.SessionStore
	relayClient  domain.Directory
	sink         *trace.Sink
}

// New constructs a session service with the given stores and directory client.
func New(
	idStore domain.IdentityStore,
	sessionStore domain.SessionStore,
	relayClient domain.Directory,
	sink *trace.Sink,
) *Service {
	return &Service{
		idStore:      idStore,
		sessionStore: sessionStore,
		relayClient:  relayClient,
		sink:         sink,
	}
}

// InitiateSession fetches the peer's bundle, derives the root key, and
// stores the resulting session.
//
// The bundle fetch consumes one-time keys on the directory side, so calling
// this twice for the same peer burns two sets; the second session replaces
// the first locally.
func (s *Service) InitiateSession(
	ctx context.Context,
	passphrase string,
	peer domain.DeviceID,
) (domain.Session, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Session{}, err
	}

	bundle, err := s.relayClient.FetchBundle(ctx, peer)
	if err != nil {
		return domain.Session{}, err
	}

	res, err := handshake.InitiatorRoot(id, bundle)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		PeerDevice:       peer,
		RootKey:          res.RootKey,
		PeerIdentityKey:  bundle.IdentityKey,
		PeerSigningKey:   bundle.SigningKey,
		PeerSignedPreKey: bundle.SignedPreKey,
		PeerPqPreKey:     res.PqTarget,
		EphemeralPriv:    res.EphemeralPriv,
		EphemeralPub:     res.EphemeralPub,
		Hello:            res.Hello,
		CreatedUTC:       time.Now().Unix(),
	}
	if err := s.sessionStore.SaveSession(peer, session); err != nil {
		return domain.Session{}, err
	}

	s.sink.Event(trace.Session, "session initiated",
		"peer", trace.ID(peer.String()),
		"one_time", res.Hello.OneTimePreKeyID != "",
		"pq_one_time", res.Hello.PqOneTime,
	)
	return session, nil
}

// GetSession retrieves a stored session for the given peer.
func (s *Service) GetSession(peer domain.DeviceID) (domain.Session, bool, error) {
	return s.sessionStore.LoadSession(peer)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
