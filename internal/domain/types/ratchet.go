package types

// RatchetState contains all fields the hybrid ratchet tracks for one
// pairwise conversation. It is a plain value; the protocol package owns the
// transitions. Not safe for concurrent use.
type RatchetState struct {
	RootKey []byte `json:"root_key"`

	SendChainKey []byte `json:"send_ck,omitempty"`
	RecvChainKey []byte `json:"recv_ck,omitempty"`

	// Current sending ratchet pair. On the initiator side the initial value
	// is the handshake ephemeral; on the responder side a fresh pair.
	DHPriv X25519Private `json:"dh_priv"`
	DHPub  X25519Public  `json:"dh_pub"`

	// PeerDHPub is the peer's most recent ratchet public key (32 bytes).
	PeerDHPub []byte `json:"peer_dh_pub,omitempty"`

	SendIndex      uint32 `json:"ns"`
	RecvIndex      uint32 `json:"nr"`
	PreviousLength uint32 `json:"pn"`

	// Responder marks the side created from a signed pre-key. Until its
	// receiving chain exists, inbound DH steps use SignedPreKeyPriv.
	Responder        bool           `json:"responder,omitempty"`
	SignedPreKeyPriv *X25519Private `json:"spk_priv,omitempty"`

	// PqPriv is the current local KEM pair; PeerPqPub the peer's most recent
	// KEM encapsulation key.
	PqPriv    PqKeyPair    `json:"pq_priv"`
	PeerPqPub *PqPublicKey `json:"peer_pq_pub,omitempty"`

	// Pending KEM material staged by the last ratchet step, attached to
	// exactly the next outbound message.
	PendingPqKey        *PqPublicKey `json:"pending_pq_pub,omitempty"`
	PendingPqCiphertext []byte       `json:"pending_pq_ct,omitempty"`

	Skipped *SkippedKeyCache `json:"skipped"`
}

// Conversation persists the ratchet state for a peer.
type Conversation struct {
	Peer  ConversationID `json:"peer"`
	State RatchetState   `json:"state"`
}
