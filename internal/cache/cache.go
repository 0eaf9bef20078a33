package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/archivefs/archivefs/pkg/types"
)

// Config represents content cache configuration
type Config struct {
	// Capacity bounds the cumulative length of all cached buffers.
	Capacity int64 `yaml:"capacity"`

	// TTL is the idle expiry, measured from last access. Zero disables
	// time-based expiry.
	TTL time.Duration `yaml:"ttl"`
}

// ContentCache is a thread-safe, weight-bounded LRU cache of decompressed
// file content, keyed by node id. One instance is shared by every mount in
// the process. Idle entries expire after the configured TTL; expiry is
// evaluated lazily on access and insert, never by a background goroutine,
// so an idle process does no cache work at all.
//
// Buffers are stored and returned without copying: all content is read-only
// by construction and callers must not modify it.
type ContentCache struct {
	mu          sync.Mutex
	capacity    int64
	ttl         time.Duration
	currentSize int64
	items       map[uint64]*cacheItem
	evictList   *list.List

	stats types.CacheStats
}

// cacheItem represents one cached buffer
type cacheItem struct {
	id         uint64
	data       []byte
	accessTime time.Time
	element    *list.Element
}

// New creates a content cache with the given bounds.
func New(config *Config) *ContentCache {
	if config == nil {
		config = &Config{
			Capacity: 64 << 20,
			TTL:      60 * time.Second,
		}
	}

	return &ContentCache{
		capacity:  config.Capacity,
		ttl:       config.TTL,
		items:     make(map[uint64]*cacheItem),
		evictList: list.New(),
		stats: types.CacheStats{
			Capacity: config.Capacity,
		},
	}
}

// Get returns the cached buffer for id, or nil on a miss. A hit refreshes
// the entry's recency and idle clock.
func (c *ContentCache) Get(id uint64) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.expireIdle(now)

	item, exists := c.items[id]
	if !exists {
		c.stats.Misses++
		c.updateHitRate()
		return nil
	}

	item.accessTime = now
	c.evictList.MoveToFront(item.element)

	c.stats.Hits++
	c.updateHitRate()
	return item.data
}

// Put stores a buffer under id, evicting least-recently-used entries as
// needed to stay under capacity. Buffers larger than the whole capacity are
// refused outright. Empty content is stored as a non-nil zero-length buffer
// so that Get's nil result always means a miss.
func (c *ContentCache) Put(id uint64, data []byte) {
	size := int64(len(data))
	if size > c.capacity {
		return
	}
	if data == nil {
		data = []byte{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.expireIdle(now)

	if item, exists := c.items[id]; exists {
		c.currentSize += size - int64(len(item.data))
		item.data = data
		item.accessTime = now
		c.evictList.MoveToFront(item.element)
	} else {
		item := &cacheItem{
			id:         id,
			data:       data,
			accessTime: now,
		}
		item.element = c.evictList.PushFront(item)
		c.items[id] = item
		c.currentSize += size
	}

	for c.currentSize > c.capacity && c.evictList.Len() > 0 {
		c.evictOldest()
	}
}

// Remove drops the entries for the given ids, if present. Called when a
// mount is reclaimed so its nodes' content does not linger until expiry.
func (c *ContentCache) Remove(ids ...uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		c.removeItem(id)
	}
}

// Size returns the cumulative length of all cached buffers.
func (c *ContentCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// Len returns the number of cached entries.
func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns cache statistics.
func (c *ContentCache) Stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = len(c.items)
	stats.Size = c.currentSize
	if c.capacity > 0 {
		stats.Utilization = float64(c.currentSize) / float64(c.capacity)
	}
	return stats
}

// Clear drops every entry.
func (c *ContentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[uint64]*cacheItem)
	c.evictList.Init()
	c.currentSize = 0
}

// expireIdle drops entries whose idle time exceeds the TTL. The eviction
// list is ordered by recency, so walking from the back stops at the first
// entry that is still fresh. Caller must hold the lock.
func (c *ContentCache) expireIdle(now time.Time) {
	if c.ttl == 0 {
		return
	}

	for {
		element := c.evictList.Back()
		if element == nil {
			break
		}
		item := element.Value.(*cacheItem)
		if now.Sub(item.accessTime) <= c.ttl {
			break
		}
		c.removeItem(item.id)
		c.stats.Expirations++
	}
}

func (c *ContentCache) evictOldest() {
	element := c.evictList.Back()
	if element == nil {
		return
	}
	c.removeItem(element.Value.(*cacheItem).id)
	c.stats.Evictions++
}

func (c *ContentCache) removeItem(id uint64) {
	item, exists := c.items[id]
	if !exists {
		return
	}

	c.evictList.Remove(item.element)
	delete(c.items, id)
	c.currentSize -= int64(len(item.data))
}

func (c *ContentCache) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
}
