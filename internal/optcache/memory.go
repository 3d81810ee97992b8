package optcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds a MemoryCache when Config.MaxEntries is unset.
// Every imported source holds two entries, options and state.
const DefaultMaxEntries = 4096

// MemoryCache keeps encoded options and state for the lifetime of one
// process, typically a watch session. It holds at most MaxEntries values and
// evicts the least recently used source first. Expired entries are dropped
// when they are next read.
type MemoryCache struct {
	entries *lru.Cache[string, memoryEntry]
	config  Config
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// NewMemoryCache creates a MemoryCache with DefaultConfig.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithConfig(DefaultConfig())
}

// NewMemoryCacheWithConfig creates a MemoryCache. A non-positive
// MaxEntries means DefaultMaxEntries.
func NewMemoryCacheWithConfig(config Config) *MemoryCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, memoryEntry](config.MaxEntries)
	if err != nil {
		// lru.New only rejects non-positive sizes.
		panic(err)
	}
	return &MemoryCache{entries: entries, config: config}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := m.entries.Get(m.config.Prefix + key)
	if !ok {
		return nil, ErrCacheMiss{Key: key}
	}
	if !entry.live(time.Now()) {
		m.entries.Remove(m.config.Prefix + key)
		return nil, ErrCacheMiss{Key: key}
	}
	return entry.data, nil
}

// Set stores a copy of value. A zero ttl uses Config.DefaultTTL; a negative
// one never expires.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	entry := memoryEntry{data: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.entries.Add(m.config.Prefix+key, entry)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Remove(m.config.Prefix + key)
	return nil
}

func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries.Purge()
	return nil
}

// Exists reports whether key holds a live entry without touching its
// recency.
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	entry, ok := m.entries.Peek(m.config.Prefix + key)
	return ok && entry.live(time.Now()), nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}

// Close releases the stored entries.
func (m *MemoryCache) Close() error {
	m.entries.Purge()
	return nil
}
