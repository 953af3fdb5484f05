package apiclient

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// DefaultCacheMaxSize bounds the in-memory cache when no size is configured.
const DefaultCacheMaxSize = 100

// InMemoryCache is a bounded in-memory cache. Entries expire lazily on read
// and the oldest-inserted entry is evicted when the cache is full, so
// eviction follows insertion order rather than access order.
type InMemoryCache struct {
	mu      sync.Mutex
	store   map[string]*CacheEntry
	order   []string
	maxSize int
}

// NewInMemoryCache creates a new in-memory cache holding at most maxSize
// entries. A maxSize <= 0 falls back to DefaultCacheMaxSize.
func NewInMemoryCache(maxSize int) *InMemoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	return &InMemoryCache{
		store:   make(map[string]*CacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get retrieves a cached entry. Expired entries are removed and reported as
// a miss; there is no background sweeper.
func (c *InMemoryCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.store[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.remove(key)
		return nil, false
	}

	return entry, true
}

// Set stores a cache entry, evicting the single oldest-inserted entry first
// when the cache is at capacity.
func (c *InMemoryCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(ttl)

	if _, exists := c.store[key]; exists {
		c.store[key] = entry
		return
	}

	if len(c.store) >= c.maxSize && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.store[key] = entry
	c.order = append(c.order, key)
}

// Delete removes a cache entry
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)
}

// Clear removes all cache entries
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
	c.order = c.order[:0]
}

// Stats returns the current size and the stored keys in insertion order.
func (c *InMemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return CacheStats{Size: len(c.store), Keys: keys}
}

// remove expects c.mu to be held.
func (c *InMemoryCache) remove(key string) {
	if _, exists := c.store[key]; !exists {
		return
	}
	delete(c.store, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func responseFromCache(entry *CacheEntry) *Response {
	return &Response{
		StatusCode: entry.StatusCode,
		Header:     entry.Header.Clone(),
		Body:       entry.Body,
	}
}

func cacheEntryFromResponse(resp *Response) *CacheEntry {
	return &CacheEntry{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       resp.Body,
	}
}

func (c *Client) shouldCacheRequest(ctx context.Context, cfg *RequestConfig) bool {
	if c.cache == nil {
		return false
	}

	if cacheControl, ok := ctx.Value(cacheControlKey).(*CacheControl); ok {
		return cacheControl.Enabled
	}

	return c.cacheCondition(cfg)
}

func (c *Client) cacheTTLForRequest(ctx context.Context) time.Duration {
	if cacheControl, ok := ctx.Value(cacheControlKey).(*CacheControl); ok && cacheControl.TTL > 0 {
		return cacheControl.TTL
	}

	return c.cacheTTL
}

// WithContextCacheEnabled creates a context that enables caching for the request
func WithContextCacheEnabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheControlKey, &CacheControl{Enabled: true})
}

// WithContextCacheDisabled creates a context that disables caching for the request
func WithContextCacheDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheControlKey, &CacheControl{Enabled: false})
}

// WithContextCacheTTL creates a context with custom TTL for the request
func WithContextCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, cacheControlKey, &CacheControl{Enabled: true, TTL: ttl})
}

// drainBody fully reads and closes r, tolerating nil readers.
func drainBody(r io.ReadCloser) []byte {
	if r == nil {
		return nil
	}
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.Bytes()
}
