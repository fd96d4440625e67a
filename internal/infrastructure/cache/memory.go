package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/shopframe/backend/internal/domain"
)

// cacheItem represents a single memoized search result with expiration
type cacheItem struct {
	Value      *domain.SearchResult
	Expiration time.Time
}

// SearchMemo is a thread-safe in-memory memo for catalog search results
// with TTL support. It sits in front of the marketplace HTTP clients so
// repeated identical queries within the window skip the network round trip.
type SearchMemo struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewSearchMemo creates a new in-memory search memo
func NewSearchMemo() *SearchMemo {
	memo := &SearchMemo{
		data: make(map[string]cacheItem),
	}

	// Start cleanup goroutine to remove expired entries every 10 minutes
	go memo.cleanupExpired()

	return memo
}

// Get retrieves a memoized result. Returns ErrCacheMiss when the key is
// absent or expired.
func (c *SearchMemo) Get(ctx context.Context, key string) (*domain.SearchResult, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set memoizes a search result with TTL
func (c *SearchMemo) Set(ctx context.Context, key string, value *domain.SearchResult, ttl time.Duration) error {
	// Round-trip through JSON so the stored copy never aliases caller slices
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var stored domain.SearchResult
	if err := json.Unmarshal(jsonData, &stored); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Value:      &stored,
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a memoized result
func (c *SearchMemo) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// cleanupExpired removes expired entries from the memo periodically
func (c *SearchMemo) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.Expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}

// Size returns the current number of memoized results
func (c *SearchMemo) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all memoized results
func (c *SearchMemo) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
