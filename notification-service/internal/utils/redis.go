package utils

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadTTL = 5 * time.Minute

// UnreadCache keeps per-user unread counters in Redis.
type UnreadCache struct {
	rdb *redis.Client
}

func NewUnreadCache(rdb *redis.Client) *UnreadCache {
	return &UnreadCache{rdb: rdb}
}

func unreadKey(userID string) string {
	return "notifications:unread:" + userID
}

func (c *UnreadCache) Get(ctx context.Context, userID string) (int64, bool) {
	n, err := c.rdb.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[CACHE] unread get %s: %v", userID, err)
		}
		return 0, false
	}
	return n, true
}

func (c *UnreadCache) Set(ctx context.Context, userID string, n int64) {
	if err := c.rdb.Set(ctx, unreadKey(userID), n, unreadTTL).Err(); err != nil {
		log.Printf("[CACHE] unread set %s: %v", userID, err)
	}
}

func (c *UnreadCache) Invalidate(ctx context.Context, userID string) {
	if err := c.rdb.Del(ctx, unreadKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] unread del %s: %v", userID, err)
	}
}
