package webhook

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultDedup suppresses repeat notifications for the same calculation,
// e.g. when a replay produces an identical result id.
type ResultDedup struct {
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
}

func NewResultDedup(maxKeys int, ttlSeconds int) *ResultDedup {
	c, _ := lru.New[string, time.Time](maxKeys)
	return &ResultDedup{
		cache: c,
		ttl:   time.Duration(ttlSeconds) * time.Second,
	}
}

func (d *ResultDedup) IsDuplicate(key string) bool {
	if addedAt, ok := d.cache.Get(key); ok {
		if time.Since(addedAt) < d.ttl {
			return true
		}
	}
	d.cache.Add(key, time.Now())
	return false
}
