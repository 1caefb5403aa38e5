package repository

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"fleet-app/trip-service/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	companyTripsPrefix = "trips_by_company:"
	companyTripsTTL    = 10 * time.Minute
)

// TripCache holds per-company trip lists as JSON.
type TripCache struct {
	rdb *redis.Client
}

func NewTripCache(rdb *redis.Client) *TripCache {
	return &TripCache{rdb: rdb}
}

func (c *TripCache) GetCompany(ctx context.Context, companyID string) ([]models.Trip, bool) {
	val, err := c.rdb.Get(ctx, companyTripsPrefix+companyID).Result()
	if err != nil {
		return nil, false
	}
	var trips []models.Trip
	if err := json.Unmarshal([]byte(val), &trips); err != nil {
		return nil, false
	}
	return trips, true
}

func (c *TripCache) SetCompany(ctx context.Context, companyID string, trips []models.Trip) {
	data, err := json.Marshal(trips)
	if err != nil {
		log.Printf("[CACHE] Failed to marshal trips: %v", err)
		return
	}
	if err := c.rdb.Set(ctx, companyTripsPrefix+companyID, data, companyTripsTTL).Err(); err != nil {
		log.Printf("[CACHE] Failed to cache trips of %s: %v", companyID, err)
	}
}

func (c *TripCache) InvalidateCompany(ctx context.Context, companyID string) {
	if err := c.rdb.Del(ctx, companyTripsPrefix+companyID).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate cache: %v", err)
	}
}

// CachedCompanies lists the companies that currently have a cached list.
func (c *TripCache) CachedCompanies(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		ids    []string
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, companyTripsPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, companyTripsPrefix))
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}
