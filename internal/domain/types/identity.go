package types

// DeviceIdentity holds a device's long-term key material: an Ed25519 signing
// pair and an X25519 agreement pair, both derived from the recovery seed at
// device birth and immutable thereafter.
type DeviceIdentity struct {
	DeviceID DeviceID       `json:"device_id"`
	Param    PqParameterSet `json:"param"`

	SigningPub  Ed25519Public  `json:"signing_pub"`
	SigningPriv Ed25519Private `json:"signing_priv"`

	AgreementPub  X25519Public  `json:"agreement_pub"`
	AgreementPriv X25519Private `json:"agreement_priv"`

	CreatedUTC int64 `json:"created_utc"`
}
