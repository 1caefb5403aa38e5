package services

import (
	"context"
	"errors"
	"log"
	"time"

	"fleet-app/driver-management-service/internal/metrics"
	"fleet-app/driver-management-service/internal/models"
	"fleet-app/driver-management-service/internal/repository"
)

const identitySyncBatch = 100

// IdentitySyncWorker delivers outbox records to the identity store. Records
// for one driver are delivered in creation order: while an older record for
// a driver is waiting or failing, newer ones for that driver are held back.
type IdentitySyncWorker struct {
	outbox     repository.OutboxRepository
	identity   IdentityStore
	clock      Clock
	baseDelay  time.Duration
	maxBackoff time.Duration
	kick       chan struct{}
}

func NewIdentitySyncWorker(outbox repository.OutboxRepository, identity IdentityStore, clock Clock, baseDelay, maxBackoff time.Duration) *IdentitySyncWorker {
	if clock == nil {
		clock = RealClock()
	}
	return &IdentitySyncWorker{
		outbox:     outbox,
		identity:   identity,
		clock:      clock,
		baseDelay:  baseDelay,
		maxBackoff: maxBackoff,
		kick:       make(chan struct{}, 1),
	}
}

// Kick asks for a delivery round without waiting for the next schedule.
func (w *IdentitySyncWorker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *IdentitySyncWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-w.kick:
				w.RunOnce(ctx)
			case <-ctx.Done():
				log.Println("[OUTBOX] Stopping identity sync worker")
				return
			}
		}
	}()
}

// RunOnce makes one delivery pass and returns how many records were completed.
func (w *IdentitySyncWorker) RunOnce(ctx context.Context) int {
	records, err := w.outbox.ListPending(ctx, identitySyncBatch)
	if err != nil {
		log.Printf("[OUTBOX] Failed to load pending records: %v", err)
		return 0
	}

	now := w.clock.Now()
	held := map[string]bool{}
	done := 0
	for _, rec := range records {
		if held[rec.DriverID] {
			continue
		}
		if rec.NextAttemptAt.After(now) {
			held[rec.DriverID] = true
			continue
		}

		err := w.identity.InternalUpdate(ctx, rec.DriverID, rec.Update, rec.IdempotencyKey)
		switch {
		case err == nil:
			if err := w.outbox.MarkDone(ctx, rec.ID, now); err != nil {
				log.Printf("[OUTBOX] Failed to mark %s done: %v", rec.ID.Hex(), err)
				held[rec.DriverID] = true
				continue
			}
			metrics.IdentitySyncAttempts.WithLabelValues("success").Inc()
			done++
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrValidation):
			metrics.IdentitySyncAttempts.WithLabelValues("dropped").Inc()
			log.Printf("[OUTBOX] Identity store refused %s for driver %s, dropping: %v", rec.ID.Hex(), rec.DriverID, err)
			if err := w.outbox.MarkFailed(ctx, rec.ID, now, err.Error()); err != nil {
				log.Printf("[OUTBOX] Failed to mark %s failed: %v", rec.ID.Hex(), err)
				held[rec.DriverID] = true
			}
		default:
			attempts := rec.Attempts + 1
			next := now.Add(models.Backoff(w.baseDelay, w.maxBackoff, attempts))
			metrics.IdentitySyncAttempts.WithLabelValues("failure").Inc()
			log.Printf("[OUTBOX] Sync %s for driver %s failed (attempt %d), retry at %s: %v",
				rec.ID.Hex(), rec.DriverID, attempts, next.Format(time.RFC3339), err)
			if err := w.outbox.MarkRetry(ctx, rec.ID, attempts, next, err.Error()); err != nil {
				log.Printf("[OUTBOX] Failed to reschedule %s: %v", rec.ID.Hex(), err)
			}
			held[rec.DriverID] = true
		}
	}

	if pending, err := w.outbox.CountPending(ctx); err == nil {
		metrics.IdentityOutboxPending.Set(float64(pending))
	}
	return done
}
