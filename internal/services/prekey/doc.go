// Package prekey manages the device's pre-key material: the signed pre-key,
// classical and ML-KEM one-time pre-keys, and the ML-KEM identity pre-key.
//
// It rotates the current signed pre-key, assembles the published key set for
// the directory, and tracks one-time consumption in the store.
package prekey
