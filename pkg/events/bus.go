package events

import (
	"context"
	"log"
	"sync"
	"time"
)

const publishTimeout = 5 * time.Second

// Bus is an outbound queue in front of a Sink. Emit never blocks the request
// path; when the buffer is full the event is dropped and logged.
type Bus struct {
	ch     chan Event
	sink   Sink
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewBus(sink Sink, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{ch: make(chan Event, buffer), sink: sink}
}

func (b *Bus) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for e := range b.ch {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := b.sink.Publish(ctx, e); err != nil {
				log.Printf("[EVENTS] Failed to publish %s %s/%s: %v", e.Type, e.EntityType, e.EntityID, err)
			}
			cancel()
		}
	}()
}

// Emit after Close drops the event.
func (b *Bus) Emit(_ context.Context, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		log.Printf("[EVENTS] Bus closed, dropping %s for %s/%s", e.Type, e.EntityType, e.EntityID)
		return
	}
	select {
	case b.ch <- e:
	default:
		log.Printf("[EVENTS] Queue full, dropping %s for %s/%s", e.Type, e.EntityType, e.EntityID)
	}
}

// Close stops accepting events, drains the queue and closes the sink.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.sink.Close()
}

// LogSink only writes events to the log; used when no broker is configured.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, e Event) error {
	log.Printf("[EVENTS] %s %s/%s actor=%s payload=%v", e.Type, e.EntityType, e.EntityID, e.ActorID, e.Payload)
	return nil
}

func (LogSink) Close() error { return nil }
