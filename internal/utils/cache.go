package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// LocalCache is a size-bounded LRU whose entries also expire after a TTL.
type LocalCache struct {
	lruCache *lru.Cache[string, CacheItem]
}

var (
	cacheInstance *LocalCache
	cacheOnce     sync.Once
)

// GetCache 获取单例缓存实例
func GetCache() *LocalCache {
	cacheOnce.Do(func() {
		cacheInstance = NewLocalCache(500)
	})
	return cacheInstance
}

func NewLocalCache(size int) *LocalCache {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &LocalCache{lruCache: l}
}

func (c *LocalCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get returns nil for missing or expired keys.
func (c *LocalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.Data
}

func (c *LocalCache) Delete(key string) {
	c.lruCache.Remove(key)
}
