package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ithalat-ops/backoffice-api/internal/domain"
)

// FiguresCache stores ERP stock and sales figures per stock code
type FiguresCache interface {
	Get(ctx context.Context, stockCode string) (*domain.StockFiguresDTO, bool, error)
	Set(ctx context.Context, value *domain.StockFiguresDTO, ttl time.Duration) error
}

// NoopFiguresCache never stores anything
type NoopFiguresCache struct{}

func (NoopFiguresCache) Get(_ context.Context, _ string) (*domain.StockFiguresDTO, bool, error) {
	return nil, false, nil
}

func (NoopFiguresCache) Set(_ context.Context, _ *domain.StockFiguresDTO, _ time.Duration) error {
	return nil
}

// MemoryFiguresCache is a process-local cache for tests and single-instance setups
type MemoryFiguresCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   domain.StockFiguresDTO
	expires time.Time
}

func NewMemoryFiguresCache() *MemoryFiguresCache {
	return &MemoryFiguresCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryFiguresCache) Get(_ context.Context, stockCode string) (*domain.StockFiguresDTO, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[stockCode]
	if !ok || c.now().After(e.expires) {
		return nil, false, nil
	}
	v := e.value
	return &v, true, nil
}

func (c *MemoryFiguresCache) Set(_ context.Context, value *domain.StockFiguresDTO, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[value.StockCode] = memoryEntry{value: *value, expires: c.now().Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryFiguresCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
