package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager puts an L1 memory tier in front of a persistent L2 backend.
// Reads check L1 first and promote L2 hits. Writes go to L2 first.
type Manager struct {
	l1 *MemoryBackend
	l2 Backend

	// Metrics
	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates hits per tier.
type ManagerStats struct {
	TotalHits   int64
	TotalMisses int64
	L1Hits      int64
	L2Hits      int64
	Promotions  int64
	HitRate     float64

	L1 CacheStats
	L2 *CacheStats // nil when the L2 backend does not report stats
}

// NewManager creates a tiered cache. l1Capacity is in bytes and must be
// positive.
func NewManager(l2 Backend, l1Capacity int64) *Manager {
	return &Manager{
		l1: NewMemoryBackend(l1Capacity),
		l2: l2,
	}
}

// Get retrieves a value from the cache hierarchy.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	if val, err := m.l1.Get(ctx, key); err == nil {
		m.record(CacheLevelL1)
		return val, nil
	}

	val, err := m.l2.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			m.mu.Lock()
			m.stats.TotalMisses++
			m.mu.Unlock()
		}
		return "", err
	}

	m.record(CacheLevelL2)
	m.promoteToL1(ctx, key, val)
	return val, nil
}

// Set stores a value in L2 and then in L1. A value L2 rejects is also
// removed from L1. Values too large for L1 still go to L2.
func (m *Manager) Set(ctx context.Context, key, value string) error {
	if err := m.l2.Set(ctx, key, value); err != nil {
		_ = m.l1.Delete(ctx, key)
		return fmt.Errorf("L2 cache error: %w", err)
	}

	if err := m.l1.Set(ctx, key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", err)
	}
	return nil
}

// Delete removes an entry from all cache levels.
func (m *Manager) Delete(ctx context.Context, key string) error {
	var errs []error

	if err := m.l1.Delete(ctx, key); err != nil {
		errs = append(errs, fmt.Errorf("L1 delete: %w", err))
	}
	if err := m.l2.Delete(ctx, key); err != nil {
		errs = append(errs, fmt.Errorf("L2 delete: %w", err))
	}

	return errors.Join(errs...)
}

// Clear removes all entries from all cache levels.
func (m *Manager) Clear(ctx context.Context) error {
	var errs []error

	if err := m.l1.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("L1 clear: %w", err))
	}
	if err := m.l2.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("L2 clear: %w", err))
	}

	return errors.Join(errs...)
}

// Close releases both tiers.
func (m *Manager) Close() error {
	_ = m.l1.Close()
	if err := m.l2.Close(); err != nil {
		return fmt.Errorf("failed to close L2 cache: %w", err)
	}
	return nil
}

// Stats returns aggregated statistics from all cache levels.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	if total := stats.TotalHits + stats.TotalMisses; total > 0 {
		stats.HitRate = float64(stats.TotalHits) / float64(total)
	}

	stats.L1 = m.l1.Stats()
	if r, ok := m.l2.(StatsReporter); ok {
		l2 := r.Stats()
		stats.L2 = &l2
	}
	return stats
}

// Backend returns the L2 backend.
func (m *Manager) Backend() Backend {
	return m.l2
}

// Private helper methods

func (m *Manager) record(level CacheLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalHits++
	switch level {
	case CacheLevelL1:
		m.stats.L1Hits++
	case CacheLevelL2:
		m.stats.L2Hits++
	}
}

// promoteToL1 promotes an item to L1 cache for faster access.
func (m *Manager) promoteToL1(ctx context.Context, key, val string) {
	// Ignore errors as promotion is best-effort
	if err := m.l1.Set(ctx, key, val); err == nil {
		m.mu.Lock()
		m.stats.Promotions++
		m.mu.Unlock()
	}
}
