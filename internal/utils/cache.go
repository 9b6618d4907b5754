package utils

import (
	"strings"
	"sync"
	"time"
)

// CacheEntry represents a cached value with expiration
type CacheEntry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache is an in-memory TTL cache. Expired entries are swept periodically
// until Stop is called.
type Cache struct {
	data       map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewCache creates a cache and starts its sweeper
func NewCache(defaultTTL time.Duration) *Cache {
	cache := &Cache{
		data:       make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}

	go cache.cleanupExpired(5 * time.Minute)

	return cache
}

// Get retrieves a live value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists || entry.IsExpired() {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
}

// DeletePrefix removes every key starting with prefix
func (c *Cache) DeletePrefix(prefix string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*CacheEntry)
}

// Size returns the number of stored entries, expired or not
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

// Stop ends the sweeper goroutine
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, entry := range c.data {
				if now.After(entry.ExpiresAt) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// PermissionCache caches admin lookups per user email
type PermissionCache struct {
	cache *Cache
}

// NewPermissionCache creates a permission cache with the given TTL
func NewPermissionCache(ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PermissionCache{cache: NewCache(ttl)}
}

func adminKey(userEmail string) string {
	return "admin:" + strings.ToLower(userEmail)
}

// GetAdminStatus retrieves cached admin status
func (pc *PermissionCache) GetAdminStatus(userEmail string) (bool, bool) {
	value, exists := pc.cache.Get(adminKey(userEmail))
	if !exists {
		return false, false
	}

	isAdmin, ok := value.(bool)
	return isAdmin, ok
}

// SetAdminStatus caches admin status
func (pc *PermissionCache) SetAdminStatus(userEmail string, isAdmin bool) {
	pc.cache.Set(adminKey(userEmail), isAdmin)
}

// InvalidateUser removes all cached permissions for a user
func (pc *PermissionCache) InvalidateUser(userEmail string) {
	pc.cache.Delete(adminKey(userEmail))
}

// Clear removes all cached permissions
func (pc *PermissionCache) Clear() {
	pc.cache.DeletePrefix("admin:")
}

// Close stops the background sweeper
func (pc *PermissionCache) Close() {
	pc.cache.Stop()
}
