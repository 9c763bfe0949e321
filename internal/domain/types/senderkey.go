package types

// SenderKeyState is one sender's symmetric chain for one group. The receiver
// copy has SigningPriv nil; only the owning sender can sign.
type SenderKeyState struct {
	GroupID GroupID  `json:"group_id"`
	Sender  DeviceID `json:"sender_id"`

	SigningPub  Ed25519Public   `json:"signing_pub"`
	SigningPriv *Ed25519Private `json:"signing_priv,omitempty"`

	ChainKey []byte `json:"chain_key"`
	Counter  uint32 `json:"counter"`

	Skipped *SkippedKeyCache `json:"skipped"`
}

// Distribution returns the record sent to other members so they can install
// a receiver copy of this state.
func (s SenderKeyState) Distribution() SenderKeyDistribution {
	return SenderKeyDistribution{
		GroupID:    s.GroupID,
		Sender:     s.Sender,
		SigningPub: s.SigningPub,
		ChainKey:   append([]byte(nil), s.ChainKey...),
	}
}
