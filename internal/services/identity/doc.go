// Package identity manages creation, recovery, and loading of the local
// device identity.
//
// It enforces passphrase policy, derives the Ed25519 and X25519 key pairs
// from a BIP-39 mnemonic seed, and persists them via the domain.IdentityStore.
// The mnemonic is returned once at creation for the user to write down; it is
// never stored.
package identity
