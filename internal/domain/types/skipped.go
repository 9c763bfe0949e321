package types

import (
	"container/list"
	"encoding/json"
)

// SkippedKeyCache is a bounded FIFO of speculatively derived message keys.
// Insertion order is eviction order; consuming an entry removes it from both
// the map and the queue in one step. All operations are O(1).
type SkippedKeyCache struct {
	cap   int
	order *list.List
	byID  map[string]*list.Element
}

type skippedEntry struct {
	ID  string `json:"id"`
	Key []byte `json:"key"`
}

// NewSkippedKeyCache returns a cache bounded to cap entries. A cap of zero or
// below falls back to DefaultSkippedKeyCap.
func NewSkippedKeyCache(cap int) *SkippedKeyCache {
	if cap <= 0 {
		cap = DefaultSkippedKeyCap
	}
	return &SkippedKeyCache{
		cap:   cap,
		order: list.New(),
		byID:  make(map[string]*list.Element),
	}
}

// DefaultSkippedKeyCap bounds the skipped-key cache unless configured otherwise.
const DefaultSkippedKeyCap = 50

// Put inserts key under id, evicting the oldest entry when the cache is full.
// Re-inserting an existing id replaces the key without changing its position.
func (c *SkippedKeyCache) Put(id string, key []byte) {
	if el, ok := c.byID[id]; ok {
		el.Value.(*skippedEntry).Key = append([]byte(nil), key...)
		return
	}
	if c.order.Len() >= c.cap {
		oldest := c.order.Front()
		if oldest != nil {
			delete(c.byID, oldest.Value.(*skippedEntry).ID)
			c.order.Remove(oldest)
		}
	}
	e := &skippedEntry{ID: id, Key: append([]byte(nil), key...)}
	c.byID[id] = c.order.PushBack(e)
}

// Take removes and returns the key stored under id.
func (c *SkippedKeyCache) Take(id string) ([]byte, bool) {
	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	delete(c.byID, id)
	c.order.Remove(el)
	return el.Value.(*skippedEntry).Key, true
}

// Get returns the key stored under id without consuming it.
func (c *SkippedKeyCache) Get(id string) ([]byte, bool) {
	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*skippedEntry).Key, true
}

// Contains reports whether id is cached without consuming it.
func (c *SkippedKeyCache) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of cached keys.
func (c *SkippedKeyCache) Len() int { return c.order.Len() }

// Cap returns the configured bound.
func (c *SkippedKeyCache) Cap() int { return c.cap }

// IDs returns the cached ids oldest first.
func (c *SkippedKeyCache) IDs() []string {
	out := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*skippedEntry).ID)
	}
	return out
}

type skippedCacheJSON struct {
	Cap     int            `json:"cap"`
	Entries []skippedEntry `json:"entries"`
}

// MarshalJSON serializes the cache preserving insertion order.
func (c *SkippedKeyCache) MarshalJSON() ([]byte, error) {
	out := skippedCacheJSON{Cap: c.cap, Entries: make([]skippedEntry, 0, c.order.Len())}
	for el := c.order.Front(); el != nil; el = el.Next() {
		out.Entries = append(out.Entries, *el.Value.(*skippedEntry))
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the cache including insertion order.
func (c *SkippedKeyCache) UnmarshalJSON(b []byte) error {
	var in skippedCacheJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	fresh := NewSkippedKeyCache(in.Cap)
	for _, e := range in.Entries {
		fresh.Put(e.ID, e.Key)
	}
	*c = *fresh
	return nil
}
