package cache

import (
	"context"
	"sync"
	"time"

	"rewards/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps every registered cache.
type Manager struct {
	mu     sync.Mutex
	caches map[string]Cleaner
	logger *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		caches: make(map[string]Cleaner),
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// Register adds a named cache to the sweep.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Sweep cleans all registered caches once and returns the number of entries removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for name, c := range m.caches {
		n := c.CleanExpired()
		if n > 0 {
			m.logger.Debug("Expired cache entries removed", "cache", name, "removed", n)
		}
		total += n
	}
	return total
}

// Run sweeps every interval until ctx is cancelled. It always returns nil so
// it can sit in an errgroup next to the HTTP server.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return nil
		}
	}
}
