package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"braid/internal/domain"
)

const idFilename = "identity.json.enc"

// IdentityFileStore persists the local device identity to disk.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

// SaveIdentity writes the encrypted identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.DeviceIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	ct, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, idFilename), ct, 0o600)
}

// LoadIdentity reads and decrypts the identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.DeviceIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, idFilename))
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	pt, err := open(passphrase, b)
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	var id domain.DeviceIdentity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.DeviceIdentity{}, err
	}
	return id, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
