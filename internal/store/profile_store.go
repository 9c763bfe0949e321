package store

import (
	"fmt"
	"path/filepath"
	"sync"

	"braid/internal/domain"
)

const profilesFile = "profiles.json"

// ProfileFileStore persists per-relay device profiles to disk.
type ProfileFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewProfileFileStore returns a ProfileFileStore rooted at dir.
func NewProfileFileStore(dir string) *ProfileFileStore {
	return &ProfileFileStore{dir: dir}
}

// SaveProfile stores or updates the given profile.
func (s *ProfileFileStore) SaveProfile(profile domain.DeviceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, profilesFile)
	profiles := make(map[string]domain.DeviceProfile)
	_ = readJSON(path, &profiles)
	profiles[profileKey(profile.ServerURL, profile.DeviceID)] = profile
	return writeJSON(path, profiles, 0o600)
}

// LoadProfile retrieves a profile for (serverURL, device).
func (s *ProfileFileStore) LoadProfile(
	serverURL string,
	device domain.DeviceID,
) (domain.DeviceProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, profilesFile)
	profiles := make(map[string]domain.DeviceProfile)
	if err := readJSON(path, &profiles); err != nil {
		return domain.DeviceProfile{}, false, err
	}
	profile, ok := profiles[profileKey(serverURL, device)]
	return profile, ok, nil
}

func profileKey(serverURL string, device domain.DeviceID) string {
	return fmt.Sprintf("%s|%s", serverURL, device)
}

// Compile-time assertion that ProfileFileStore implements domain.ProfileStore.
var _ domain.ProfileStore = (*ProfileFileStore)(nil)
