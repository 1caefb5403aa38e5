package shutdown

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const defaultTimeout = 15 * time.Second

// Manager cancels the root context on SIGINT/SIGTERM and runs the registered
// close tasks in reverse registration order.
type Manager struct {
	cancelFunc context.CancelFunc
	tasks      []func(context.Context) error
	mu         sync.Mutex
	timeout    time.Duration
	exit       func(code int)
}

func NewManager(ctx context.Context) (context.Context, *Manager) {
	ctx, cancel := context.WithCancel(ctx)
	return ctx, &Manager{cancelFunc: cancel, timeout: defaultTimeout, exit: os.Exit}
}

func (m *Manager) Register(task func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

func (m *Manager) StartListening() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("[SHUTDOWN] Received signal: %v", sig)
		m.Shutdown()
		m.exit(0)
	}()
}

// Shutdown cancels the root context and runs every task once.
func (m *Manager) Shutdown() {
	m.cancelFunc()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	for i := len(tasks) - 1; i >= 0; i-- {
		if err := tasks[i](ctx); err != nil {
			log.Printf("[SHUTDOWN] Error during shutdown: %v", err)
		}
	}
	log.Println("[SHUTDOWN] Graceful shutdown complete")
}
