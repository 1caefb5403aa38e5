package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fleet-app/driver-management-service/internal/models"

	"github.com/redis/go-redis/v9"
)

const ratingSummaryTTL = 10 * time.Minute

// RatingCache keeps computed aggregates in Redis.
type RatingCache struct {
	rdb *redis.Client
}

func NewRatingCache(rdb *redis.Client) *RatingCache {
	return &RatingCache{rdb: rdb}
}

func ratingSummaryKey(driverID string) string {
	return fmt.Sprintf("driver_rating_summary:%s", driverID)
}

func (c *RatingCache) Get(ctx context.Context, driverID string) (*models.RatingAggregate, bool) {
	data, err := c.rdb.Get(ctx, ratingSummaryKey(driverID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[CACHE] Failed to read rating summary for %s: %v", driverID, err)
		}
		return nil, false
	}
	var agg models.RatingAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, false
	}
	return &agg, true
}

func (c *RatingCache) Set(ctx context.Context, agg models.RatingAggregate) {
	data, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, ratingSummaryKey(agg.DriverID), data, ratingSummaryTTL).Err(); err != nil {
		log.Printf("[CACHE] Failed to cache rating summary for %s: %v", agg.DriverID, err)
	}
}

func (c *RatingCache) Invalidate(ctx context.Context, driverID string) {
	if err := c.rdb.Del(ctx, ratingSummaryKey(driverID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate rating summary for %s: %v", driverID, err)
	}
}
