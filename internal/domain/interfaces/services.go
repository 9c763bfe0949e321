package interfaces

import (
	"context"

	domaintypes "braid/internal/domain/types"
)

// IdentityService creates, recovers, and inspects the device identity.
type IdentityService interface {
	CreateDevice(
		passphrase string,
		device domaintypes.DeviceID,
		param domaintypes.PqParameterSet,
	) (
		identity domaintypes.DeviceIdentity,
		fingerprint domaintypes.Fingerprint,
		mnemonic string,
		err error,
	)
	RecoverDevice(
		passphrase string,
		device domaintypes.DeviceID,
		param domaintypes.PqParameterSet,
		mnemonic string,
	) (domaintypes.DeviceIdentity, domaintypes.Fingerprint, error)
	LoadIdentity(passphrase string) (domaintypes.DeviceIdentity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates pre-key material and assembles the published set.
type PreKeyService interface {
	GenerateAndStorePreKeys(passphrase string, oneTimeCount int) error
	PublishedKeys(passphrase string) (domaintypes.PublishedKeys, error)
}

// SessionService establishes or retrieves a pairwise session.
type SessionService interface {
	InitiateSession(
		ctx context.Context,
		passphrase string,
		peer domaintypes.DeviceID,
	) (domaintypes.Session, error)
	GetSession(peer domaintypes.DeviceID) (domaintypes.Session, bool, error)
}

// MessageService encrypts, sends, fetches and decrypts pairwise traffic.
// It owns the per-peer deferred queue and hands sender-key material to the
// group service.
type MessageService interface {
	SendMessage(
		ctx context.Context,
		passphrase string,
		from domaintypes.DeviceID,
		to domaintypes.DeviceID,
		plaintext []byte,
	) error
	ReceiveMessages(
		ctx context.Context,
		passphrase string,
		me domaintypes.DeviceID,
		limit int,
	) ([]domaintypes.DecryptedMessage, error)
}

// GroupService manages sender-key groups on top of the pairwise channel.
type GroupService interface {
	CreateGroup(
		ctx context.Context,
		passphrase string,
		me domaintypes.DeviceID,
		group domaintypes.GroupID,
		members []domaintypes.DeviceID,
	) error
	SendGroupMessage(
		ctx context.Context,
		passphrase string,
		me domaintypes.DeviceID,
		group domaintypes.GroupID,
		plaintext []byte,
	) error
	GroupInstaller
	GroupOpener
}

// GroupInstaller installs a receiver sender-key state delivered through the
// pairwise channel. The message service calls it when it unwraps a
// distribution payload.
type GroupInstaller interface {
	InstallSenderKey(dist domaintypes.SenderKeyDistribution) error
}

// GroupOpener decrypts an inbound group envelope with an installed state.
type GroupOpener interface {
	OpenGroupMessage(env domaintypes.GroupEnvelope) (domaintypes.DecryptedMessage, error)
}
