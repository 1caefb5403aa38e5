package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic jobs: the expiry sweep and the identity sync
// round that picks up records waiting for a retry.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(requests *JobRequestService, worker *IdentitySyncWorker, sweepSpec string, syncEvery time.Duration) (*Scheduler, error) {
	c := cron.New()

	if _, err := c.AddFunc(sweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := requests.SweepExpired(ctx)
		if err != nil {
			log.Printf("[EXPIRY] Sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[EXPIRY] Marked %d job requests as expired", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid expiry sweep schedule %q: %w", sweepSpec, err)
	}

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", syncEvery), worker.Kick); err != nil {
		return nil, fmt.Errorf("invalid outbox poll interval %s: %w", syncEvery, err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	log.Println("[CRON] Scheduler started")
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[CRON] Scheduler stopped")
}
