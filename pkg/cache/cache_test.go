package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("missing key: hit=%v err=%v", hit, err)
	}

	want := []byte{0x54, 0x52, 0x44, 0x43, 0x00, 0x01}
	if err := c.Set(ctx, "costs", want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "costs")
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if string(got) != string(want) {
		t.Errorf("roundtrip mismatch: %v", got)
	}

	if err := c.Delete(ctx, "costs"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "costs"); hit {
		t.Error("key survived Delete")
	}
	if err := c.Delete(ctx, "costs"); err != nil {
		t.Errorf("double Delete errored: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry still returned")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// DataCostKey should include options in hash
	dk1 := k.DataCostKey("mesh1", "views1", DataCostKeyOpts{NumFaces: 100, NumViews: 8})
	dk2 := k.DataCostKey("mesh1", "views1", DataCostKeyOpts{NumFaces: 100, NumViews: 9})
	if dk1 == dk2 {
		t.Error("Different DataCostKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(dk1, "datacost:") {
		t.Errorf("DataCostKey missing prefix: %s", dk1)
	}
	if k.DataCostKey("mesh1", "views1", DataCostKeyOpts{NumFaces: 100, NumViews: 8}) != dk1 {
		t.Error("DataCostKey should be deterministic")
	}

	// LabelingKey
	lk1 := k.LabelingKey("hash123", 0.1)
	lk2 := k.LabelingKey("hash123", 0.5)
	if lk1 == lk2 {
		t.Error("Different smoothness weights should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "scene:abc:")

	// All keys should be prefixed
	dk := scoped.DataCostKey("mesh", "views", DataCostKeyOpts{})
	if !strings.HasPrefix(dk, "scene:abc:datacost:") {
		t.Errorf("ScopedKeyer DataCostKey should be prefixed: %s", dk)
	}
	lk := scoped.LabelingKey("hash", 0.1)
	if !strings.HasPrefix(lk, "scene:abc:labeling:") {
		t.Errorf("ScopedKeyer LabelingKey should be prefixed: %s", lk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.LabelingKey("h", 0)
	if !strings.HasPrefix(key, "prefix:labeling:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
