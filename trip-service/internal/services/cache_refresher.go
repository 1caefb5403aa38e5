package services

import (
	"context"
	"log"
	"time"
)

type CompanyLister interface {
	CachedCompanies(ctx context.Context) ([]string, error)
}

// CacheRefresher reloads every company list that is currently cached.
type CacheRefresher struct {
	trips    *TripService
	cache    CompanyLister
	interval time.Duration
}

func NewCacheRefresher(trips *TripService, cache CompanyLister, interval time.Duration) *CacheRefresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheRefresher{trips: trips, cache: cache, interval: interval}
}

func (cr *CacheRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(cr.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				cr.refresh(ctx)
			case <-ctx.Done():
				log.Println("[CACHE] Stopping cache refresher...")
				ticker.Stop()
				return
			}
		}
	}()
}

func (cr *CacheRefresher) refresh(ctx context.Context) int {
	companies, err := cr.cache.CachedCompanies(ctx)
	if err != nil {
		log.Printf("[CACHE] Failed to list cached companies: %v", err)
		return 0
	}
	refreshed := 0
	for _, id := range companies {
		if _, err := cr.trips.RefreshCompany(ctx, id); err != nil {
			log.Printf("[CACHE] Failed to refresh trips of %s: %v", id, err)
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		log.Printf("[CACHE] Refreshed %d company trip lists", refreshed)
	}
	return refreshed
}
