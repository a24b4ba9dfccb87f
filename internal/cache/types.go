package cache

import (
	"context"
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheMiss is returned when an item is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupted is returned when cache data is corrupted
	ErrCacheCorrupted = errors.New("cache data corrupted")

	// ErrUnknownDriver is returned by Open for an unsupported driver name
	ErrUnknownDriver = errors.New("unknown cache driver")
)

// CacheLevel represents the cache tier
type CacheLevel int

const (
	// CacheLevelL1 represents the memory cache (fastest)
	CacheLevelL1 CacheLevel = iota

	// CacheLevelL2 represents the persistent backend
	CacheLevelL2
)

// CacheStats holds cache performance metrics
type CacheStats struct {
	// Configuration
	Capacity int64 // Maximum capacity in bytes, 0 when unbounded

	// Current state
	Size      int64 // Current size in bytes
	ItemCount int64 // Number of items in cache

	// Performance metrics
	Hits      int64   // Number of cache hits
	Misses    int64   // Number of cache misses
	Evictions int64   // Number of evictions
	HitRate   float64 // Calculated hit rate (hits / (hits + misses))

	// Timing
	LastAccess time.Time // Last access time
	LastEvict  time.Time // Last eviction time
}

func (s *CacheStats) updateHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// Backend is a persistent string key-value store. Get returns ErrCacheMiss
// when the key is absent. Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// StatsReporter is implemented by backends that track their own metrics.
type StatsReporter interface {
	Stats() CacheStats
}

// Config holds configuration for opening a backend.
type Config struct {
	// Driver selects the backend: disk, memory, redis, nats or sqlite.
	Driver string

	// MemoryCapacity in bytes for an L1 memory tier in front of the
	// driver. Zero disables the tier.
	MemoryCapacity int64

	// Disk backend
	DiskCapacity     int64  // Bytes
	DiskPath         string // Directory for cache files
	CompressionLevel int    // Zstd compression level (1-22), 0 disables compression

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	RedisTTL      time.Duration // 0 keeps entries forever

	// NATS backend
	NATSURL    string
	NATSBucket string

	// SQLite backend
	SQLitePath string
}

// Driver names accepted by Open.
const (
	DriverDisk   = "disk"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNATS   = "nats"
	DriverSQLite = "sqlite"
)

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		Driver:           DriverDisk,
		MemoryCapacity:   16 * 1024 * 1024,  // 16MB
		DiskCapacity:     100 * 1024 * 1024, // 100MB
		CompressionLevel: 3,                 // Balanced compression
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "narrate",
		NATSURL:          "nats://127.0.0.1:4222",
		NATSBucket:       "narrate",
	}
}
