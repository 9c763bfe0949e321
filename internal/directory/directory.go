// Package directory implements the in-memory pre-key directory.
//
// A device publishes its key set once (republishing replaces it); every
// bundle lookup drains at most one classical and one ML-KEM one-time key
// from the device's queues. A one-time id is never served twice: the dequeue
// happens under the directory lock, so concurrent fetchers get distinct keys
// or none.
package directory

import (
	"context"
	"errors"
	"sync"

	"braid/internal/domain"
)

// ErrUnknownDevice is returned for a device that has never published.
var ErrUnknownDevice = errors.New("directory: unknown device")

type record struct {
	keys     domain.PublishedKeys
	opkQueue []domain.OneTimePreKeyPublic
	pqQueue  []domain.PqPublicKey
}

// Directory holds the current published bundle for each device.
type Directory struct {
	mu      sync.Mutex
	devices map[domain.DeviceID]*record
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{devices: make(map[domain.DeviceID]*record)}
}

// Publish installs or replaces the device's key set. The one-time queues are
// reset to the published lists.
func (d *Directory) Publish(_ context.Context, keys domain.PublishedKeys) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := &record{keys: keys}
	rec.opkQueue = append(rec.opkQueue, keys.OneTimePreKeys...)
	rec.pqQueue = append(rec.pqQueue, keys.PqOneTimePreKeys...)
	d.devices[keys.DeviceID] = rec
	return nil
}

// FetchBundle assembles a bundle for device, consuming one classical and one
// ML-KEM one-time key when available. Empty queues leave the corresponding
// bundle fields absent.
func (d *Directory) FetchBundle(
	_ context.Context,
	device domain.DeviceID,
) (domain.PreKeyBundle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.devices[device]
	if !ok {
		return domain.PreKeyBundle{}, ErrUnknownDevice
	}

	bundle := domain.PreKeyBundle{
		DeviceID:              rec.keys.DeviceID,
		SigningKey:            rec.keys.SigningKey,
		IdentityKey:           rec.keys.IdentityKey,
		SignedPreKeyID:        rec.keys.SignedPreKeyID,
		SignedPreKey:          rec.keys.SignedPreKey,
		SignedPreKeySignature: append([]byte(nil), rec.keys.SignedPreKeySignature...),
		PqPreKey:              rec.keys.PqPreKey,
		PqPreKeySignature:     append([]byte(nil), rec.keys.PqPreKeySignature...),
	}

	if len(rec.opkQueue) > 0 {
		opk := rec.opkQueue[0]
		rec.opkQueue = rec.opkQueue[1:]
		bundle.OneTimePreKey = &opk
	}
	if len(rec.pqQueue) > 0 {
		pq := rec.pqQueue[0]
		rec.pqQueue = rec.pqQueue[1:]
		bundle.PqOneTimePreKey = &pq
	}
	return bundle, nil
}

// RemainingOneTimeKeys reports queue depths, for operators watching drain.
func (d *Directory) RemainingOneTimeKeys(device domain.DeviceID) (classical, pq int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, found := d.devices[device]
	if !found {
		return 0, 0, false
	}
	return len(rec.opkQueue), len(rec.pqQueue), true
}

// Compile-time assertion that Directory implements domain.Directory.
var _ domain.Directory = (*Directory)(nil)
