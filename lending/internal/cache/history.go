package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Astemirdum/lending-service/lending/internal/model"
)

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 1024
)

// HistoryCache holds assembled member histories. Entries expire after the
// TTL; writers must Invalidate the affected members after commit.
type HistoryCache struct {
	lru *expirable.LRU[int64, model.History]
}

func NewHistoryCache(size int, ttl time.Duration) *HistoryCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &HistoryCache{
		lru: expirable.NewLRU[int64, model.History](size, nil, ttl),
	}
}

func (c *HistoryCache) Get(userID int64) (model.History, bool) {
	return c.lru.Get(userID)
}

func (c *HistoryCache) Set(userID int64, h model.History) {
	c.lru.Add(userID, h)
}

func (c *HistoryCache) Invalidate(userIDs ...int64) {
	for _, id := range userIDs {
		c.lru.Remove(id)
	}
}

func (c *HistoryCache) Purge() {
	c.lru.Purge()
}

func (c *HistoryCache) Len() int {
	return c.lru.Len()
}
