package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/medlens/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("fp1", "fever and cough")
	b := CacheKey("fp1", "fever and cough")
	c := CacheKey("fp2", "fever and cough")
	d := CacheKey("fp1", "fever and chills")

	if a != b {
		t.Error("Expected same key for same input")
	}
	if a == c {
		t.Error("Expected fingerprint to change the key")
	}
	if a == d {
		t.Error("Expected text to change the key")
	}
	if !strings.HasPrefix(a, "medlens:v1:") {
		t.Errorf("Expected versioned prefix, got %s", a)
	}
	if strings.Contains(a, "fever") {
		t.Error("Expected raw text not to appear in the key")
	}
}

func TestCacheKey_NoBoundaryCollision(t *testing.T) {
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("Expected fingerprint/text boundary to be unambiguous")
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Expected hit with 'v', got %q (found=%v)", val, found)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected entry to expire")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := CacheKey("fp", string(rune('a'+i%26)))
			_ = c.Set(key, []byte("x"), 0)
			c.Get(key)
		}(i)
	}
	wg.Wait()

	if c.Len() != 26 {
		t.Errorf("Expected 26 distinct entries, got %d", c.Len())
	}
}

func TestDiskCache_SetGet(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("fp", "headache")

	if err := c.Set(key, []byte(`{"ok":true}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get(key)
	if !found || string(val) != `{"ok":true}` {
		t.Errorf("Expected stored value, got %q (found=%v)", val, found)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("Expected one cache file, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), ":") {
		t.Errorf("Expected sanitized file name, got %s", entries[0].Name())
	}

	info, err := os.Stat(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("Expected private cache file, got %v", perm)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set("k", []byte("v"), time.Minute)

	now = now.Add(2 * time.Minute)
	if _, found := c.Get("k"); found {
		t.Error("Expected expired entry to be dropped")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired file to be removed")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected miss for corrupt entry")
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete("never-set"); err != nil {
		t.Errorf("Expected no error deleting a missing entry, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Simulate a new process: fresh memory layer, same disk
	c2 := NewLayeredCache(time.Minute, dir, time.Hour)
	val, found := c2.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", val, found)
	}
	if _, found := c2.memory.Get("k"); !found {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestLayeredCache_ClearAndDelete(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	if err := c.Delete("a"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected miss after delete")
	}

	if err := c.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, found := c.Get("b"); found {
		t.Error("Expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("Expected nil cache when disabled")
	}

	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory-only cache without a disk dir")
	}

	cfg := model.CacheConfig{Enabled: true, MemoryTTL: time.Minute, DiskDir: t.TempDir(), DiskTTL: time.Hour}
	if _, ok := New(cfg).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a disk dir")
	}
}
