package store

import (
	"path/filepath"
	"sync"
	"time"

	"braid/internal/domain"
)

const (
	spkPairsFile   = "spk_pairs.json"    // map[SignedPreKeyID]spkPair
	opkPairsFile   = "opk_pairs.json"    // map[OneTimePreKeyID]opkPair
	pqPreKeyFile   = "pq_pre_key.json"   // pqIdentityRecord
	pqOpkPairsFile = "pq_opk_pairs.json" // map[PqKeyID]pqPair
	metaFile       = "prekey_meta.json"  // { "current_spk_id": "..." }
)

type spkPair struct {
	Priv domain.X25519Private `json:"priv"`
	Pub  domain.X25519Public  `json:"pub"`
	Sig  []byte               `json:"sig"`
	At   int64                `json:"at"`
}

type opkPair struct {
	Priv domain.X25519Private `json:"priv"`
	Pub  domain.X25519Public  `json:"pub"`
	At   int64                `json:"at"`
}

type pqIdentityRecord struct {
	Pair domain.PqKeyPair `json:"pair"`
	Sig  []byte           `json:"sig"`
	At   int64            `json:"at"`
}

type pqPair struct {
	Pair domain.PqKeyPair `json:"pair"`
	At   int64            `json:"at"`
}

type prekeyMeta struct {
	CurrentSPKID domain.SignedPreKeyID `json:"current_spk_id"`
}

// PreKeyFileStore keeps signed, one-time, and ML-KEM pre-keys on disk.
// One-time consumption removes the pair under the store lock, so a second
// consumer of the same id observes it gone.
type PreKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPreKeyFileStore returns a PreKeyFileStore rooted at dir.
func NewPreKeyFileStore(dir string) *PreKeyFileStore {
	return &PreKeyFileStore{dir: dir}
}

// ---------- Signed pre-key ----------

// SaveSignedPreKey stores a signed pre-key pair with its signature.
func (s *PreKeyFileStore) SaveSignedPreKey(
	id domain.SignedPreKeyID,
	priv domain.X25519Private,
	pub domain.X25519Public,
	sig []byte,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, spkPairsFile)
	m := make(map[domain.SignedPreKeyID]spkPair)
	_ = readJSON(path, &m)
	m[id] = spkPair{Priv: priv, Pub: pub, Sig: append([]byte(nil), sig...), At: time.Now().Unix()}
	return writeJSON(path, m, 0o600)
}

// LoadSignedPreKey retrieves a signed pre-key pair by id.
func (s *PreKeyFileStore) LoadSignedPreKey(
	id domain.SignedPreKeyID,
) (priv domain.X25519Private, pub domain.X25519Public, sig []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[domain.SignedPreKeyID]spkPair)
	if err = readJSON(filepath.Join(s.dir, spkPairsFile), &m); err != nil {
		return priv, pub, nil, false, err
	}
	p, exists := m[id]
	if !exists {
		return priv, pub, nil, false, nil
	}
	return p.Priv, p.Pub, append([]byte(nil), p.Sig...), true, nil
}

// ---------- Classical one-time pre-keys ----------

// SaveOneTimePreKeys stores freshly generated one-time pairs.
func (s *PreKeyFileStore) SaveOneTimePreKeys(pairs []domain.OneTimePreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, opkPairsFile)
	m := make(map[domain.OneTimePreKeyID]opkPair)
	_ = readJSON(path, &m)
	for _, p := range pairs {
		m[p.ID] = opkPair{Priv: p.Priv, Pub: p.Pub, At: time.Now().Unix()}
	}
	return writeJSON(path, m, 0o600)
}

// ConsumeOneTimePreKey removes and returns the pair under id.
func (s *PreKeyFileStore) ConsumeOneTimePreKey(
	id domain.OneTimePreKeyID,
) (priv domain.X25519Private, pub domain.X25519Public, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, opkPairsFile)
	m := make(map[domain.OneTimePreKeyID]opkPair)
	if err = readJSON(path, &m); err != nil {
		return priv, pub, false, err
	}
	p, exists := m[id]
	if !exists {
		return priv, pub, false, nil
	}
	delete(m, id)
	if err = writeJSON(path, m, 0o600); err != nil {
		return priv, pub, false, err
	}
	return p.Priv, p.Pub, true, nil
}

// ListOneTimePreKeyPublics returns the remaining one-time publics.
func (s *PreKeyFileStore) ListOneTimePreKeyPublics() ([]domain.OneTimePreKeyPublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[domain.OneTimePreKeyID]opkPair)
	if err := readJSON(filepath.Join(s.dir, opkPairsFile), &m); err != nil {
		return nil, err
	}
	out := make([]domain.OneTimePreKeyPublic, 0, len(m))
	for id, p := range m {
		out = append(out, domain.OneTimePreKeyPublic{ID: id, Pub: p.Pub})
	}
	return out, nil
}

// ---------- ML-KEM pre-keys ----------

// SavePqPreKey stores the ML-KEM identity pre-key pair and its signature.
// Unlike one-time keys it is reused until rotated.
func (s *PreKeyFileStore) SavePqPreKey(pair domain.PqKeyPair, sig []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := pqIdentityRecord{Pair: pair, Sig: append([]byte(nil), sig...), At: time.Now().Unix()}
	return writeJSON(filepath.Join(s.dir, pqPreKeyFile), rec, 0o600)
}

// LoadPqPreKey retrieves the ML-KEM identity pre-key pair and signature.
func (s *PreKeyFileStore) LoadPqPreKey() (domain.PqKeyPair, []byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec pqIdentityRecord
	if err := readJSON(filepath.Join(s.dir, pqPreKeyFile), &rec); err != nil {
		return domain.PqKeyPair{}, nil, false, err
	}
	if len(rec.Pair.Public) == 0 {
		return domain.PqKeyPair{}, nil, false, nil
	}
	return rec.Pair, append([]byte(nil), rec.Sig...), true, nil
}

// SavePqOneTimePreKeys stores freshly generated one-time ML-KEM pairs.
func (s *PreKeyFileStore) SavePqOneTimePreKeys(pairs []domain.PqKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, pqOpkPairsFile)
	m := make(map[domain.PqKeyID]pqPair)
	_ = readJSON(path, &m)
	for _, p := range pairs {
		m[p.KeyID] = pqPair{Pair: p, At: time.Now().Unix()}
	}
	return writeJSON(path, m, 0o600)
}

// ConsumePqOneTimePreKey removes and returns the ML-KEM pair under id.
func (s *PreKeyFileStore) ConsumePqOneTimePreKey(id domain.PqKeyID) (domain.PqKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, pqOpkPairsFile)
	m := make(map[domain.PqKeyID]pqPair)
	if err := readJSON(path, &m); err != nil {
		return domain.PqKeyPair{}, false, err
	}
	p, exists := m[id]
	if !exists {
		return domain.PqKeyPair{}, false, nil
	}
	delete(m, id)
	if err := writeJSON(path, m, 0o600); err != nil {
		return domain.PqKeyPair{}, false, err
	}
	return p.Pair, true, nil
}

// ListPqOneTimePreKeyPublics returns the remaining one-time ML-KEM publics.
func (s *PreKeyFileStore) ListPqOneTimePreKeyPublics() ([]domain.PqPublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[domain.PqKeyID]pqPair)
	if err := readJSON(filepath.Join(s.dir, pqOpkPairsFile), &m); err != nil {
		return nil, err
	}
	out := make([]domain.PqPublicKey, 0, len(m))
	for _, p := range m {
		out = append(out, p.Pair.PublicKey())
	}
	return out, nil
}

// ---------- Signed pre-key metadata ----------

// SetCurrentSignedPreKeyID marks id as the pre-key future bundles advertise.
func (s *PreKeyFileStore) SetCurrentSignedPreKeyID(id domain.SignedPreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(filepath.Join(s.dir, metaFile), prekeyMeta{CurrentSPKID: id}, 0o600)
}

// CurrentSignedPreKeyID returns the advertised signed pre-key id.
func (s *PreKeyFileStore) CurrentSignedPreKeyID() (domain.SignedPreKeyID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var meta prekeyMeta
	if err := readJSON(filepath.Join(s.dir, metaFile), &meta); err != nil {
		return "", false, err
	}
	if meta.CurrentSPKID == "" {
		return "", false, nil
	}
	return meta.CurrentSPKID, true, nil
}

// Compile-time assertion that PreKeyFileStore implements domain.PreKeyStore.
var _ domain.PreKeyStore = (*PreKeyFileStore)(nil)
