package types

// OneTimePreKeyPair is the full (private+public) one-time pre-key stored locally.
type OneTimePreKeyPair struct {
	ID   OneTimePreKeyID `json:"id"`
	Priv X25519Private   `json:"priv"`
	Pub  X25519Public    `json:"pub"`
}

// OneTimePreKeyPublic is only the public half (served in bundles).
type OneTimePreKeyPublic struct {
	ID  OneTimePreKeyID `json:"id"`
	Pub X25519Public    `json:"pub"`
}

// PublishedKeys is everything a device uploads to the directory: the static
// bundle material plus the one-time queues the directory drains on lookups.
// Only public halves leave the device.
type PublishedKeys struct {
	DeviceID    DeviceID      `json:"device_id"`
	SigningKey  Ed25519Public `json:"signing_key"`
	IdentityKey X25519Public  `json:"identity_key"`

	SignedPreKeyID        SignedPreKeyID `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public   `json:"signed_pre_key"`
	SignedPreKeySignature []byte         `json:"signed_pre_key_signature"`

	OneTimePreKeys []OneTimePreKeyPublic `json:"one_time_pre_keys,omitempty"`

	PqPreKey          PqPublicKey   `json:"pq_pre_key"`
	PqPreKeySignature []byte        `json:"pq_pre_key_signature"`
	PqOneTimePreKeys  []PqPublicKey `json:"pq_one_time_pre_keys,omitempty"`
}

// PreKeyBundle is what the directory returns to an initiator: the static
// material plus at most one classical and one PQ one-time key, each served
// exactly once.
type PreKeyBundle struct {
	DeviceID    DeviceID      `json:"device_id"`
	SigningKey  Ed25519Public `json:"signing_key"`
	IdentityKey X25519Public  `json:"identity_key"`

	SignedPreKeyID        SignedPreKeyID `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public   `json:"signed_pre_key"`
	SignedPreKeySignature []byte         `json:"signed_pre_key_signature"`

	OneTimePreKey *OneTimePreKeyPublic `json:"one_time_pre_key,omitempty"`

	PqPreKey          PqPublicKey  `json:"pq_pre_key"`
	PqPreKeySignature []byte       `json:"pq_pre_key_signature"`
	PqOneTimePreKey   *PqPublicKey `json:"pq_one_time_pre_key,omitempty"`
}
