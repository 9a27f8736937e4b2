package variables

import "sort"

// Cache is the name to value memory shared across templates in one editing session.
type Cache interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Delete(name string)
}

// MemoryCache is an unbounded in-memory Cache. It is not safe for concurrent use.
type MemoryCache struct {
	values map[string]string
}

// NewMemoryCache creates a cache seeded with the given values.
func NewMemoryCache(seed map[string]string) *MemoryCache {
	values := make(map[string]string, len(seed))
	for name, value := range seed {
		values[name] = value
	}
	return &MemoryCache{values: values}
}

// Get returns the cached value for name.
func (c *MemoryCache) Get(name string) (string, bool) {
	value, ok := c.values[name]
	return value, ok
}

// Set stores value under name, replacing any previous value.
func (c *MemoryCache) Set(name, value string) {
	c.values[name] = value
}

// Delete removes name from the cache.
func (c *MemoryCache) Delete(name string) {
	delete(c.values, name)
}

// Len returns the number of cached names.
func (c *MemoryCache) Len() int {
	return len(c.values)
}

// Snapshot returns a copy of the cached values.
func (c *MemoryCache) Snapshot() map[string]string {
	out := make(map[string]string, len(c.values))
	for name, value := range c.values {
		out[name] = value
	}
	return out
}

// Keys returns the cached names sorted.
func (c *MemoryCache) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for name := range c.values {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

type nopCache struct{}

func (nopCache) Get(string) (string, bool) { return "", false }
func (nopCache) Set(string, string)        {}
func (nopCache) Delete(string)             {}
