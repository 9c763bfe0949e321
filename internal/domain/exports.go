package domain

import (
	interfaces "braid/internal/domain/interfaces"
	types "braid/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	DeviceID        = types.DeviceID
	GroupID         = types.GroupID
	Fingerprint     = types.Fingerprint
	SignedPreKeyID  = types.SignedPreKeyID
	OneTimePreKeyID = types.OneTimePreKeyID
	PqKeyID         = types.PqKeyID
	ConversationID  = types.ConversationID
	PqParameterSet  = types.PqParameterSet

	X25519Public  = types.X25519Public
	X25519Private = types.X25519Private
	Ed25519Public = types.Ed25519Public
	Ed25519Private = types.Ed25519Private
	PqPublicKey   = types.PqPublicKey
	PqKeyPair     = types.PqKeyPair

	DeviceIdentity        = types.DeviceIdentity
	OneTimePreKeyPair     = types.OneTimePreKeyPair
	OneTimePreKeyPublic   = types.OneTimePreKeyPublic
	PublishedKeys         = types.PublishedKeys
	PreKeyBundle          = types.PreKeyBundle
	HandshakeHello        = types.HandshakeHello
	Envelope              = types.Envelope
	GroupEnvelope         = types.GroupEnvelope
	WireMessage           = types.WireMessage
	DecryptedMessage      = types.DecryptedMessage
	SenderKeyDistribution = types.SenderKeyDistribution
	RatchetHeader         = types.RatchetHeader
	RatchetState          = types.RatchetState
	Conversation          = types.Conversation
	SenderKeyState        = types.SenderKeyState
	Session               = types.Session
	DeviceProfile         = types.DeviceProfile
	SkippedKeyCache       = types.SkippedKeyCache
)

// Constants re-exported for compact imports.
const (
	MLKem512 = types.MLKem512
	MLKem768 = types.MLKem768
	MLKem1024 = types.MLKem1024

	DefaultSkippedKeyCap = types.DefaultSkippedKeyCap
)

// Constructor and helper functions re-exported for compact imports.
var (
	NewSkippedKeyCache = types.NewSkippedKeyCache
	MustX25519Public   = types.MustX25519Public
	MustX25519Private  = types.MustX25519Private
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService = interfaces.IdentityService
	PreKeyService   = interfaces.PreKeyService
	SessionService  = interfaces.SessionService
	MessageService  = interfaces.MessageService
	GroupService    = interfaces.GroupService
	GroupInstaller  = interfaces.GroupInstaller
	GroupOpener     = interfaces.GroupOpener

	Directory   = interfaces.Directory
	Transport   = interfaces.Transport
	RelayClient = interfaces.RelayClient

	IdentityStore      = interfaces.IdentityStore
	PreKeyStore        = interfaces.PreKeyStore
	PublishedKeysStore = interfaces.PublishedKeysStore
	SessionStore       = interfaces.SessionStore
	RatchetStore       = interfaces.RatchetStore
	SenderKeyStore     = interfaces.SenderKeyStore
	ProfileStore       = interfaces.ProfileStore
)
