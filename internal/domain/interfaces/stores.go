package interfaces

import domaintypes "braid/internal/domain/types"

// IdentityStore persists the device's long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.DeviceIdentity) error
	LoadIdentity(passphrase string) (domaintypes.DeviceIdentity, error)
}

// PreKeyStore manages signed, one-time and PQ pre-keys on disk.
// One-time consumption is atomic: a second consumer of the same id gets ok=false.
type PreKeyStore interface {
	// Signed pre-key
	SaveSignedPreKey(
		id domaintypes.SignedPreKeyID,
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		sig []byte,
	) error
	LoadSignedPreKey(
		id domaintypes.SignedPreKeyID,
	) (
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		sig []byte,
		ok bool,
		err error,
	)

	// Classical one-time pre-keys
	SaveOneTimePreKeys(pairs []domaintypes.OneTimePreKeyPair) error
	ConsumeOneTimePreKey(id domaintypes.OneTimePreKeyID) (
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		ok bool,
		err error,
	)
	ListOneTimePreKeyPublics() ([]domaintypes.OneTimePreKeyPublic, error)

	// PQ identity pre-key: reused until rotated, never consumed.
	SavePqPreKey(pair domaintypes.PqKeyPair, sig []byte) error
	LoadPqPreKey() (pair domaintypes.PqKeyPair, sig []byte, ok bool, err error)

	// PQ one-time pre-keys
	SavePqOneTimePreKeys(pairs []domaintypes.PqKeyPair) error
	ConsumePqOneTimePreKey(id domaintypes.PqKeyID) (domaintypes.PqKeyPair, bool, error)
	ListPqOneTimePreKeyPublics() ([]domaintypes.PqPublicKey, error)

	// Current signed pre-key selection
	SetCurrentSignedPreKeyID(id domaintypes.SignedPreKeyID) error
	CurrentSignedPreKeyID() (domaintypes.SignedPreKeyID, bool, error)
}

// PublishedKeysStore caches the last key set the device registered.
type PublishedKeysStore interface {
	SavePublishedKeys(keys domaintypes.PublishedKeys) error
	LoadPublishedKeys(device domaintypes.DeviceID) (domaintypes.PublishedKeys, bool, error)
}

// SessionStore persists established handshake sessions.
type SessionStore interface {
	SaveSession(peer domaintypes.DeviceID, session domaintypes.Session) error
	LoadSession(peer domaintypes.DeviceID) (domaintypes.Session, bool, error)
}

// RatchetStore keeps per-peer ratchet state.
type RatchetStore interface {
	SaveConversation(peer domaintypes.ConversationID, conversation domaintypes.Conversation) error
	LoadConversation(peer domaintypes.ConversationID) (domaintypes.Conversation, bool, error)
}

// SenderKeyStore keeps per-(group, sender) chain state.
type SenderKeyStore interface {
	SaveSenderKey(state domaintypes.SenderKeyState) error
	LoadSenderKey(
		group domaintypes.GroupID,
		sender domaintypes.DeviceID,
	) (domaintypes.SenderKeyState, bool, error)
	ListGroupMembers(group domaintypes.GroupID) ([]domaintypes.DeviceID, error)
	SaveGroupMembers(group domaintypes.GroupID, members []domaintypes.DeviceID) error
}

// ProfileStore persists per-relay device profiles.
type ProfileStore interface {
	SaveProfile(profile domaintypes.DeviceProfile) error
	LoadProfile(serverURL string, device domaintypes.DeviceID) (domaintypes.DeviceProfile, bool, error)
}
