package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brettearl18/checkin-v5-sub001/internal/monitoring"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL for the read-heavy dashboard
// endpoints (timelines, trends). Writes invalidate per client.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
	ttl   time.Duration
}

// NewCache creates a new cache with the specified TTL
func NewCache(ttl time.Duration) *Cache {
	cache := &Cache{
		items: make(map[string]*CacheItem),
		ttl:   ttl,
	}

	go cache.cleanup()

	return cache
}

// cleanup removes expired items periodically
func (c *Cache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, item := range c.items {
			if item.IsExpired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// generateKey creates a consistent key from the input
func (c *Cache) generateKey(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if item.IsExpired() {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return item.Data, true
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// InvalidateClient drops every cached entry for one client. Called after a
// new check-in lands so the dashboard never shows a stale timeline.
func (c *Cache) InvalidateClient(clientID string) {
	prefix := "client:" + clientID + ":"

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Size returns the current item count
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// clientKey namespaces a request path under its client so invalidation can
// target one client's entries.
func clientKey(clientID, path string) string {
	return "client:" + clientID + ":" + path
}

// cachedWriter buffers the response body so a successful render can be stored.
type cachedWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware caches successful JSON responses for GET endpoints that carry a
// client id parameter.
func (c *Cache) Middleware(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != "GET" {
			ctx.Next()
			return
		}

		clientID := ctx.Param("id")
		if clientID == "" {
			ctx.Next()
			return
		}

		// Coach-facing renders differ per viewer, so the session coach is
		// part of the key. Invalidation still sweeps the whole client prefix.
		viewer := ctx.GetString("coach_id")
		key := clientKey(clientID, c.generateKey(viewer+"|"+ctx.Request.URL.RequestURI()))

		if data, found := c.Get(key); found {
			metrics.IncrementCacheHit()
			ctx.Data(200, "application/json; charset=utf-8", data)
			ctx.Abort()
			return
		}
		metrics.IncrementCacheMiss()

		writer := &cachedWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = writer

		ctx.Next()

		if ctx.Writer.Status() == 200 && writer.body.Len() > 0 {
			c.Set(key, writer.body.Bytes())
		}
	}
}
