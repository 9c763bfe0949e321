package types_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"braid/internal/domain/types"
)

func TestPutTake(t *testing.T) {
	c := types.NewSkippedKeyCache(10)
	c.Put("a", []byte{1})
	c.Put("b", []byte{2})

	if got := c.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	key, ok := c.Take("a")
	if !ok || key[0] != 1 {
		t.Fatalf("Take(a) = %v, %v", key, ok)
	}
	if _, ok := c.Take("a"); ok {
		t.Fatalf("Take(a) succeeded twice")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d after consume, want 1", c.Len())
	}
}

func TestEvictionIsInsertionOrder(t *testing.T) {
	c := types.NewSkippedKeyCache(3)
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}

	want := []string{"k2", "k3", "k4"}
	if diff := cmp.Diff(want, c.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if c.Contains("k0") || c.Contains("k1") {
		t.Fatalf("oldest entries not evicted")
	}
}

func TestConsumeThenEvictOrder(t *testing.T) {
	// Consuming from the middle must not disturb the FIFO order of the rest.
	c := types.NewSkippedKeyCache(3)
	c.Put("a", []byte{1})
	c.Put("b", []byte{2})
	c.Put("c", []byte{3})
	c.Take("b")
	c.Put("d", []byte{4})
	c.Put("e", []byte{5}) // evicts a

	want := []string{"c", "d", "e"}
	if diff := cmp.Diff(want, c.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTripPreservesOrder(t *testing.T) {
	c := types.NewSkippedKeyCache(4)
	c.Put("x", []byte{9})
	c.Put("y", []byte{8})
	c.Put("z", []byte{7})

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored := types.NewSkippedKeyCache(0)
	if err := json.Unmarshal(b, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(c.IDs(), restored.IDs()); diff != "" {
		t.Fatalf("order lost (-want +got):\n%s", diff)
	}
	if restored.Cap() != 4 {
		t.Fatalf("cap = %d, want 4", restored.Cap())
	}
	key, ok := restored.Take("y")
	if !ok || key[0] != 8 {
		t.Fatalf("Take(y) = %v, %v", key, ok)
	}
}

func TestGetDoesNotConsume(t *testing.T) {
	c := types.NewSkippedKeyCache(2)
	c.Put("a", []byte{1})
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("Get(a) missed")
	}
	if !c.Contains("a") {
		t.Fatalf("Get consumed the entry")
	}
}
