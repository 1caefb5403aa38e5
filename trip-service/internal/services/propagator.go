package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// AssignmentTarget is a service that mirrors a driver's assignment status.
type AssignmentTarget interface {
	Name() string
	SetAssignmentStatus(ctx context.Context, driverID, status string) error
}

type propagationKey struct {
	target int
	driver string
}

// AssignmentPropagator pushes assignment changes to every target. Each call
// runs in the background with its own timeout; failures are logged and dropped.
// Calls for the same driver reach a target in the order they were made.
type AssignmentPropagator struct {
	targets []AssignmentTarget
	timeout time.Duration
	wg      sync.WaitGroup

	mu    sync.Mutex
	tails map[propagationKey]chan struct{}
}

func NewAssignmentPropagator(timeout time.Duration, targets ...AssignmentTarget) *AssignmentPropagator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AssignmentPropagator{
		targets: targets,
		timeout: timeout,
		tails:   map[propagationKey]chan struct{}{},
	}
}

func (p *AssignmentPropagator) Propagate(driverID, status string) {
	for i, target := range p.targets {
		key := propagationKey{target: i, driver: driverID}
		done := make(chan struct{})

		p.mu.Lock()
		prev := p.tails[key]
		p.tails[key] = done
		p.mu.Unlock()

		p.wg.Add(1)
		go func(t AssignmentTarget) {
			defer p.wg.Done()
			if prev != nil {
				<-prev
			}
			p.send(t, driverID, status)
			close(done)

			p.mu.Lock()
			if p.tails[key] == done {
				delete(p.tails, key)
			}
			p.mu.Unlock()
		}(target)
	}
}

func (p *AssignmentPropagator) send(t AssignmentTarget, driverID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := t.SetAssignmentStatus(ctx, driverID, status); err != nil {
		log.Printf("[PROPAGATOR] %s: driver %s -> %s failed: %v", t.Name(), driverID, status, err)
		return
	}
	log.Printf("[PROPAGATOR] %s: driver %s -> %s", t.Name(), driverID, status)
}

// Wait blocks until in-flight propagations finish.
func (p *AssignmentPropagator) Wait() {
	p.wg.Wait()
}
