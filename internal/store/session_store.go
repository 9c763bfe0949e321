package store

import (
	"path/filepath"
	"sync"

	"braid/internal/domain"
)

const sessionsFile = "sessions.json"

// SessionFileStore persists established handshake sessions per peer.
type SessionFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string) *SessionFileStore {
	return &SessionFileStore{dir: dir}
}

// SaveSession writes the session for peer.
func (s *SessionFileStore) SaveSession(peer domain.DeviceID, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFile)
	m := map[domain.DeviceID]domain.Session{}
	_ = readJSON(path, &m)
	m[peer] = session
	return writeJSON(path, m, 0o600)
}

// LoadSession retrieves the session for peer.
func (s *SessionFileStore) LoadSession(peer domain.DeviceID) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFile)
	m := map[domain.DeviceID]domain.Session{}
	if err := readJSON(path, &m); err != nil {
		return domain.Session{}, false, err
	}
	sess, ok := m[peer]
	return sess, ok, nil
}

// Compile-time assertion that SessionFileStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionFileStore)(nil)
