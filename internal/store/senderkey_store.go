package store

import (
	"fmt"
	"path/filepath"
	"sync"

	"braid/internal/domain"
)

const (
	senderKeysFile = "sender_keys.json" // map[group|sender]SenderKeyState
	groupsFile     = "groups.json"      // map[GroupID][]DeviceID
)

// SenderKeyFileStore persists sender-key chains and group rosters.
type SenderKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewSenderKeyFileStore returns a SenderKeyFileStore rooted at dir.
func NewSenderKeyFileStore(dir string) *SenderKeyFileStore {
	return &SenderKeyFileStore{dir: dir}
}

// SaveSenderKey writes the chain state for (state.GroupID, state.Sender).
func (s *SenderKeyFileStore) SaveSenderKey(state domain.SenderKeyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, senderKeysFile)
	m := map[string]domain.SenderKeyState{}
	_ = readJSON(path, &m)
	m[senderKeyID(state.GroupID, state.Sender)] = state
	return writeJSON(path, m, 0o600)
}

// LoadSenderKey retrieves the chain state for (group, sender).
func (s *SenderKeyFileStore) LoadSenderKey(
	group domain.GroupID,
	sender domain.DeviceID,
) (domain.SenderKeyState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, senderKeysFile)
	m := map[string]domain.SenderKeyState{}
	if err := readJSON(path, &m); err != nil {
		return domain.SenderKeyState{}, false, err
	}
	st, ok := m[senderKeyID(group, sender)]
	return st, ok, nil
}

// SaveGroupMembers records the known roster for group.
func (s *SenderKeyFileStore) SaveGroupMembers(
	group domain.GroupID,
	members []domain.DeviceID,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, groupsFile)
	m := map[domain.GroupID][]domain.DeviceID{}
	_ = readJSON(path, &m)
	m[group] = members
	return writeJSON(path, m, 0o600)
}

// ListGroupMembers returns the known roster for group.
func (s *SenderKeyFileStore) ListGroupMembers(group domain.GroupID) ([]domain.DeviceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := map[domain.GroupID][]domain.DeviceID{}
	if err := readJSON(filepath.Join(s.dir, groupsFile), &m); err != nil {
		return nil, err
	}
	return m[group], nil
}

func senderKeyID(group domain.GroupID, sender domain.DeviceID) string {
	return fmt.Sprintf("%s|%s", group, sender)
}

// Compile-time assertion that SenderKeyFileStore implements domain.SenderKeyStore.
var _ domain.SenderKeyStore = (*SenderKeyFileStore)(nil)
