package offline

import (
	"encoding/json"
	"time"

	"github.com/finmar/clientshell/errors"
	"github.com/finmar/clientshell/storage"
)

// DefaultMaxAge is how long cached data stays fresh when the cache is built
// without an explicit limit.
const DefaultMaxAge = time.Hour

type cachedEntry struct {
	Key      string
	Data     json.RawMessage
	StoredAt time.Time
}

func (c cachedEntry) PK() string {
	return c.Key
}

func (c cachedEntry) Name() string {
	return "cached_data"
}

// Cache is a durable last-known-good cache for remote data. Entries carry
// their write time; reads apply a freshness window so pages can prefer fresh
// data but still fall back to anything at all when offline.
type Cache struct {
	store  storage.Store
	maxAge time.Duration
	now    func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMaxAge sets the default freshness window.
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.maxAge = d
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache returns a cache over store with a one hour default freshness
// window.
func NewCache(store storage.Store, opts ...CacheOption) *Cache {
	c := &Cache{store: store, maxAge: DefaultMaxAge, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores data under key, stamping it with the current time.
func (c *Cache) Put(key string, data json.RawMessage) error {
	return c.store.Upsert(cachedEntry{Key: key, Data: data, StoredAt: c.now().UTC()})
}

// Get returns the entry under key if it is within the default freshness
// window. The second return is false when the key is absent or stale; a stale
// entry is left in place for GetAny.
func (c *Cache) Get(key string) (json.RawMessage, bool, error) {
	return c.GetWithMaxAge(key, c.maxAge)
}

// GetWithMaxAge is Get with an explicit freshness window.
func (c *Cache) GetWithMaxAge(key string, maxAge time.Duration) (json.RawMessage, bool, error) {
	var entry cachedEntry
	err := c.store.Read(key, &entry)
	if errors.Code(err) == storage.ErrNotFound.Code() {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.now().Sub(entry.StoredAt) > maxAge {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// GetAny returns the entry under key regardless of age. Offline fallbacks use
// this: stale data beats no data when the network is gone.
func (c *Cache) GetAny(key string) (json.RawMessage, bool, error) {
	var entry cachedEntry
	err := c.store.Read(key, &entry)
	if errors.Code(err) == storage.ErrNotFound.Code() {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Data, true, nil
}

// Remove deletes the entry under key. Removing an absent key is not an
// error.
func (c *Cache) Remove(key string) error {
	err := c.store.Delete(cachedEntry{Key: key})
	if errors.Code(err) == storage.ErrNotFound.Code() {
		return nil
	}
	return err
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	var entries []cachedEntry
	if err := c.store.List(&entries, cachedEntry{}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := c.Remove(entry.Key); err != nil {
			return err
		}
	}
	return nil
}
