package utils

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"fleet-app/vehicle-service/internal/models"

	"github.com/redis/go-redis/v9"
)

var RedisCacheDuration = 30 * time.Second

// VehicleCache keeps single vehicles hot for internal lookups.
type VehicleCache struct {
	client *redis.Client
}

func NewVehicleCache(client *redis.Client) *VehicleCache {
	return &VehicleCache{client: client}
}

func vehicleKey(id string) string { return "vehicle:" + id }

func (c *VehicleCache) Get(ctx context.Context, id string) (*models.Vehicle, bool) {
	val, err := c.client.Get(ctx, vehicleKey(id)).Result()
	if err != nil {
		return nil, false
	}
	var v models.Vehicle
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *VehicleCache) Set(ctx context.Context, v *models.Vehicle) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, vehicleKey(v.ID.Hex()), data, RedisCacheDuration).Err(); err != nil {
		log.Printf("[CACHE] Failed to cache vehicle %s: %v", v.ID.Hex(), err)
	}
}

func (c *VehicleCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, vehicleKey(id)).Err(); err != nil {
		log.Printf("[CACHE] Failed to evict vehicle %s: %v", id, err)
	}
}
