package cache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/redis/go-redis/v9"
)

// Open creates the backend selected by cfg.Driver. When MemoryCapacity is
// positive and the driver is persistent, the backend is wrapped in a
// Manager with an L1 memory tier.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Backend, error) {
	var (
		b   Backend
		err error
	)

	switch cfg.Driver {
	case DriverDisk, "":
		if cfg.DiskPath == "" {
			return nil, fmt.Errorf("disk cache: no directory configured")
		}
		b, err = NewDiskBackend(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
	case DriverMemory:
		return NewMemoryBackend(cfg.MemoryCapacity), nil
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		b = NewRedisBackend(client, WithRedisPrefix(cfg.RedisPrefix), WithRedisTTL(cfg.RedisTTL))
	case DriverNATS:
		b, err = DialNATS(ctx, cfg.NATSURL, cfg.NATSBucket)
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DiskPath, "narrate.db")
		}
		b, err = OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("opened cache backend", "driver", driverName(cfg.Driver),
			"memory", humanize.Bytes(uint64(max(cfg.MemoryCapacity, 0))))
	}

	if cfg.MemoryCapacity > 0 {
		return NewManager(b, cfg.MemoryCapacity), nil
	}
	return b, nil
}

func driverName(d string) string {
	if d == "" {
		return DriverDisk
	}
	return d
}
