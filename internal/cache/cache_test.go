package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func countJSON(t *testing.T, dir string) int {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n
}

func TestCache_PutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Options{Disk: true, Dir: dir, TTLSeconds: 86400})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "test-key"
	value := "- possible IndexError on line 4"

	// Miss before put
	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}

	if err := c.Put(key, value); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got != value {
		t.Errorf("Got = %q, want %q", got, value)
	}
}

func TestCache_MemoryOnly(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.DiskEnabled() {
		t.Error("disk tier should be off")
	}
	if c.Dir() != "" {
		t.Errorf("Dir = %q, want empty", c.Dir())
	}

	if err := c.Put("k", "v"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if got, ok := c.Get("k"); !ok || got != "v" {
		t.Errorf("Get = (%q, %v), want (v, true)", got, ok)
	}

	removed, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}

func TestCache_MemoryEviction(t *testing.T) {
	c, err := New(Options{MemoryEntries: 2})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should be present")
	}
}

func TestCache_DiskSurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()
	first, err := New(Options{Disk: true, Dir: dir})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := first.Put("key", "LGTM"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	second, err := New(Options{Disk: true, Dir: dir})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got, ok := second.Get("key")
	if !ok || got != "LGTM" {
		t.Errorf("Get = (%q, %v), want (LGTM, true)", got, ok)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Options{Disk: true, Dir: dir, TTLSeconds: 1})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "expire-test"
	if err := c.Put(key, "data"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if _, ok := c.Get(key); !ok {
		t.Error("Expected cache hit before expiration")
	}

	time.Sleep(1100 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Options{Disk: true, Dir: dir, TTLSeconds: 86400})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if err := c.Put(key, "data"); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if n := countJSON(t, dir); n != 5 {
		t.Fatalf("Expected 5 cache entries, got %d", n)
	}

	removed, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if removed != 5 {
		t.Errorf("removed = %d, want 5", removed)
	}
	if n := countJSON(t, dir); n != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", n)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("memory tier should be cleared too")
	}
}

func TestCache_GetStats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Options{Disk: true, Dir: dir, TTLSeconds: 86400})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}

	c.Put("key1", "value1")
	c.Put("key2", "value2")
	c.Get("key1")
	c.Get("missing")

	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.MemoryEntries != 2 {
		t.Errorf("MemoryEntries = %d, want 2", stats.MemoryEntries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 { // SHA-256 hex = 64 chars
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestBuildCacheKey(t *testing.T) {
	sys := []string{"You are a reviewer."}
	k1 := BuildCacheKey("anthropic", "claude-sonnet-4-5", sys, "prompt")
	k2 := BuildCacheKey("anthropic", "claude-sonnet-4-5", sys, "prompt")
	k3 := BuildCacheKey("openai", "gpt-4o-mini", sys, "prompt")
	k4 := BuildCacheKey("anthropic", "claude-sonnet-4-5", []string{"Other persona."}, "prompt")

	if k1 != k2 {
		t.Error("Same inputs should produce same cache key")
	}
	if k1 == k3 {
		t.Error("Different provider should produce different cache key")
	}
	if k1 == k4 {
		t.Error("Different system messages should produce different cache key")
	}
}

func TestDefaultDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", "glean") {
		t.Errorf("DefaultDir = %q", dir)
	}
}
