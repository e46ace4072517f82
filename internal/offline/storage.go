package offline

import (
	"net/http"
	"sort"
	"sync"
)

// Storage holds named caches, like the browser's CacheStorage.
type Storage interface {
	// Open returns the named cache, creating it when absent.
	Open(name string) (Cache, error)
	Has(name string) (bool, error)
	// Keys lists cache names in sorted order.
	Keys() ([]string, error)
	// Delete removes the named cache and reports whether it existed.
	Delete(name string) (bool, error)
}

// Cache is a single named cache.
type Cache interface {
	Match(key string) (*Response, bool, error)
	// PutAll stores every entry or none of them.
	PutAll(entries []Entry) error
	Keys() ([]string, error)
}

// MemoryStorage keeps caches in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]*Response)}
		s.caches[name] = c
	}
	return c, nil
}

func (s *MemoryStorage) Has(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.caches[name]
	return ok, nil
}

func (s *MemoryStorage) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok, nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

func (c *memoryCache) Match(key string) (*Response, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return cloneResponse(r), true, nil
}

func (c *memoryCache) PutAll(entries []Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		c.entries[e.Key] = cloneResponse(e.Response)
	}
	return nil
}

func (c *memoryCache) Keys() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func cloneResponse(r *Response) *Response {
	if r == nil {
		return nil
	}
	out := &Response{
		Status: r.Status,
		Header: http.Header{},
		Body:   append([]byte(nil), r.Body...),
	}
	if r.Header != nil {
		out.Header = r.Header.Clone()
	}
	return out
}
