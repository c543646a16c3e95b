package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries is the LRU size used when none is configured.
const DefaultMemoryEntries = 512

// Entry represents a cached inference response.
type Entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// Options configures a Cache.
type Options struct {
	// Disk enables the on-disk tier.
	Disk bool
	// Dir is the disk directory. Empty means the default cache directory.
	Dir           string
	TTLSeconds    int
	MemoryEntries int
}

// Cache is a two-tier response cache: an LRU in memory and optional JSON
// files on disk.
type Cache struct {
	mem        *lru.Cache[string, Entry]
	dir        string
	ttlSeconds int
	disk       bool

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new Cache.
func New(opts Options) (*Cache, error) {
	size := opts.MemoryEntries
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	mem, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}

	c := &Cache{mem: mem, ttlSeconds: opts.TTLSeconds}
	if !opts.Disk {
		return c, nil
	}

	dir := opts.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c.dir = dir
	c.disk = true
	return c, nil
}

// Get retrieves a cached response by key. Returns ("", false) on miss.
func (c *Cache) Get(key string) (string, bool) {
	hashed := HashKey(key)

	if e, ok := c.mem.Get(hashed); ok {
		if !c.expired(e) {
			c.hits.Add(1)
			return e.Response, true
		}
		c.mem.Remove(hashed)
	}

	if c.disk {
		if e, ok := c.readDisk(hashed); ok {
			c.mem.Add(hashed, e)
			c.hits.Add(1)
			return e.Response, true
		}
	}

	c.misses.Add(1)
	return "", false
}

// Put stores a response in the cache.
func (c *Cache) Put(key, response string) error {
	hashed := HashKey(key)
	entry := Entry{
		Key:       hashed,
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	c.mem.Add(hashed, entry)

	if !c.disk {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := os.WriteFile(c.entryPath(hashed), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries and returns how many disk entries were deleted.
func (c *Cache) Clear() (int, error) {
	c.mem.Purge()
	if !c.disk {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir           string `json:"dir,omitempty"`
	MemoryEntries int    `json:"memoryEntries"`
	Entries       int    `json:"entries"`
	TotalBytes    int64  `json:"totalBytes"`
	Expired       int    `json:"expired"`
	Hits          int64  `json:"hits"`
	Misses        int64  `json:"misses"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{
		Dir:           c.dir,
		MemoryEntries: c.mem.Len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
	}
	if !c.disk {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		if entry, ok := c.loadEntry(filepath.Join(c.dir, e.Name())); ok && c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the disk cache directory, or "" when the disk tier is off.
func (c *Cache) Dir() string {
	return c.dir
}

// DiskEnabled returns whether the disk tier is enabled.
func (c *Cache) DiskEnabled() bool {
	return c.disk
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from the inference inputs.
func BuildCacheKey(provider, model string, system []string, prompt string) string {
	return HashKey(fmt.Sprintf("%s:%s:%s:%s", provider, model, strings.Join(system, "\x1f"), prompt))
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

func (c *Cache) readDisk(hashed string) (Entry, bool) {
	path := c.entryPath(hashed)
	entry, ok := c.loadEntry(path)
	if !ok {
		return Entry{}, false
	}
	if c.expired(entry) {
		os.Remove(path)
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) loadEntry(path string) (Entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) entryPath(hashed string) string {
	return filepath.Join(c.dir, hashed+".json")
}

// DefaultDir returns the OS-appropriate cache directory for glean.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "glean"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "glean"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "glean", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "glean", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "glean"), nil
	}
}
