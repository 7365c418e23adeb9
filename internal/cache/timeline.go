package cache

import (
	"context"
	"fmt"
	"time"
)

const timelineKeyPrefix = "signify:timeline:"

// TimelineKey is the cache key of a person's rendered timeline at one log
// version. A write bumps the version, so a stale entry can never be served
// for the new log even if its invalidation is lost.
func TimelineKey(personID int, version int64) string {
	return fmt.Sprintf("%s%d:v%d", timelineKeyPrefix, personID, version)
}

// TimelineCache stores rendered timeline JSON per person and log version.
type TimelineCache struct {
	kv  KVStore
	ttl time.Duration
}

func NewTimelineCache(kv KVStore, ttl time.Duration) *TimelineCache {
	return &TimelineCache{kv: kv, ttl: ttl}
}

// Get returns the cached timeline or ErrCacheMiss.
func (c *TimelineCache) Get(ctx context.Context, personID int, version int64) ([]byte, error) {
	val, err := c.kv.Get(ctx, TimelineKey(personID, version))
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

func (c *TimelineCache) Put(ctx context.Context, personID int, version int64, data []byte) error {
	return c.kv.Set(ctx, TimelineKey(personID, version), string(data), c.ttl)
}

// Invalidate drops the entry for the version a write replaced.
func (c *TimelineCache) Invalidate(ctx context.Context, personID int, version int64) error {
	return c.kv.Delete(ctx, TimelineKey(personID, version))
}
