package group

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"braid/internal/domain"
	"braid/internal/protocol/senderkey"
	"braid/internal/trace"
)

// distTag marks a pairwise plaintext as a sender-key distribution record.
// The JSON body follows immediately after.
const distTag = "skdist:"

var (
	// ErrUnknownSenderKeyState means no chain is installed for the
	// (group, sender) a message or send call names.
	ErrUnknownSenderKeyState = errors.New("group: unknown sender-key state")

	// ErrNoMembers means the group has no roster to fan out to.
	ErrNoMembers = errors.New("group: no members recorded")
)

// EncodeDistribution wraps a distribution record for the pairwise channel.
func EncodeDistribution(dist domain.SenderKeyDistribution) ([]byte, error) {
	body, err := json.Marshal(dist)
	if err != nil {
		return nil, err
	}
	return append([]byte(distTag), body...), nil
}

// DecodeDistribution recognises and parses a wrapped distribution record.
// The second return is false for ordinary plaintext.
func DecodeDistribution(plaintext []byte) (domain.SenderKeyDistribution, bool) {
	if !bytes.HasPrefix(plaintext, []byte(distTag)) {
		return domain.SenderKeyDistribution{}, false
	}
	var dist domain.SenderKeyDistribution
	if err := json.Unmarshal(plaintext[len(distTag):], &dist); err != nil {
		return domain.SenderKeyDistribution{}, false
	}
	return dist, true
}

// Service owns sender-key chains and the group rosters they fan out to.
type Service struct {
	store      domain.SenderKeyStore
	messages   domain.MessageService
	relay      domain.Transport
	sink       *trace.Sink
	skippedCap int
}

// New constructs a group service. messages carries distributions through the
// pairwise channel; relay carries the group envelopes themselves.
func New(
	store domain.SenderKeyStore,
	messages domain.MessageService,
	relay domain.Transport,
	sink *trace.Sink,
	skippedCap int,
) *Service {
	return &Service{
		store:      store,
		messages:   messages,
		relay:      relay,
		sink:       sink,
		skippedCap: skippedCap,
	}
}

// CreateGroup mints our sender chain for the group, records the roster, and
// distributes the chain to every member over their pairwise channels. Every
// member therefore needs an initiated session first.
func (s *Service) CreateGroup(
	ctx context.Context,
	passphrase string,
	me domain.DeviceID,
	group domain.GroupID,
	members []domain.DeviceID,
) error {
	st, err := senderkey.NewSender(group, me, s.skippedCap)
	if err != nil {
		return err
	}
	if err := s.store.SaveSenderKey(st); err != nil {
		return err
	}
	if err := s.store.SaveGroupMembers(group, members); err != nil {
		return err
	}

	payload, err := EncodeDistribution(st.Distribution())
	if err != nil {
		return err
	}
	for _, member := range members {
		if member == me {
			continue
		}
		if err := s.messages.SendMessage(ctx, passphrase, me, member, payload); err != nil {
			return fmt.Errorf("distribute sender key to %q: %w", member, err)
		}
	}

	s.sink.Event(trace.Group, "group created",
		"group", trace.ID(group.String()), "members", len(members))
	return nil
}

// SendGroupMessage encrypts plaintext under our sender chain and fans the
// signed envelope out to the roster.
func (s *Service) SendGroupMessage(
	ctx context.Context,
	passphrase string,
	me domain.DeviceID,
	group domain.GroupID,
	plaintext []byte,
) error {
	st, found, err := s.store.LoadSenderKey(group, me)
	if err != nil {
		return err
	}
	if !found {
		return ErrUnknownSenderKeyState
	}

	counter, sig, payload, err := senderkey.Seal(&st, plaintext)
	if err != nil {
		return err
	}
	if err := s.store.SaveSenderKey(st); err != nil {
		return err
	}

	members, err := s.store.ListGroupMembers(group)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return ErrNoMembers
	}

	now := time.Now().Unix()
	for _, member := range members {
		if member == me {
			continue
		}
		env := domain.GroupEnvelope{
			GroupID:   group,
			From:      me,
			To:        member,
			Counter:   counter,
			Signature: sig,
			Payload:   payload,
			Timestamp: now,
		}
		if err := s.relay.SendMessage(ctx, domain.WireMessage{Group: &env}); err != nil {
			return err
		}
	}
	return nil
}

// InstallSenderKey installs the receiver side of a distributed chain.
func (s *Service) InstallSenderKey(dist domain.SenderKeyDistribution) error {
	st := senderkey.NewReceiver(dist, s.skippedCap)
	return s.store.SaveSenderKey(st)
}

// OpenGroupMessage verifies and decrypts an inbound group envelope with the
// installed chain for its (group, sender).
func (s *Service) OpenGroupMessage(env domain.GroupEnvelope) (domain.DecryptedMessage, error) {
	st, found, err := s.store.LoadSenderKey(env.GroupID, env.From)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	if !found {
		return domain.DecryptedMessage{}, ErrUnknownSenderKeyState
	}

	pt, err := senderkey.Open(&st, env.Counter, env.Signature, env.Payload)
	if err != nil {
		return domain.DecryptedMessage{}, err
	}
	if err := s.store.SaveSenderKey(st); err != nil {
		return domain.DecryptedMessage{}, err
	}

	return domain.DecryptedMessage{
		From:      env.From,
		To:        env.To,
		GroupID:   env.GroupID,
		Plaintext: pt,
		Timestamp: env.Timestamp,
	}, nil
}

// Compile-time assertion that Service implements domain.GroupService.
var _ domain.GroupService = (*Service)(nil)
