package store

import (
	"path/filepath"
	"sync"

	"braid/internal/domain"
)

const publishedFile = "published_keys.json"

// PublishedKeysFileStore caches the last key set the device registered, so
// re-registration after a relay wipe needs no fresh key generation.
type PublishedKeysFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPublishedKeysFileStore returns a PublishedKeysFileStore rooted at dir.
func NewPublishedKeysFileStore(dir string) *PublishedKeysFileStore {
	return &PublishedKeysFileStore{dir: dir}
}

// SavePublishedKeys overwrites the cached key set.
func (s *PublishedKeysFileStore) SavePublishedKeys(keys domain.PublishedKeys) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(filepath.Join(s.dir, publishedFile), keys, 0o600)
}

// LoadPublishedKeys returns the cached key set for device, if any.
func (s *PublishedKeysFileStore) LoadPublishedKeys(
	device domain.DeviceID,
) (domain.PublishedKeys, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys domain.PublishedKeys
	if err := readJSON(filepath.Join(s.dir, publishedFile), &keys); err != nil {
		return domain.PublishedKeys{}, false, err
	}
	if keys.DeviceID != device {
		return domain.PublishedKeys{}, false, nil
	}
	return keys, true, nil
}

// Compile-time assertion that PublishedKeysFileStore implements domain.PublishedKeysStore.
var _ domain.PublishedKeysStore = (*PublishedKeysFileStore)(nil)
