package services

import (
	"context"
	"log"
	"time"
)

// CronJobService runs periodic trip maintenance.
type CronJobService struct {
	trips    *TripService
	interval time.Duration
	grace    time.Duration
}

func NewCronJobService(trips *TripService, interval, grace time.Duration) *CronJobService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CronJobService{trips: trips, interval: interval, grace: grace}
}

func (s *CronJobService) Start(ctx context.Context) {
	go s.startAutoCompleteJob(ctx)
}

func (s *CronJobService) startAutoCompleteJob(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.trips.AutoCompleteOverdue(ctx, s.grace)
		case <-ctx.Done():
			log.Println("[CRON] Stopping auto-complete job")
			return
		}
	}
}
