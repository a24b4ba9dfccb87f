package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/utils"
)

const megabyte = 1024 * 1024

// settings is the validated view of the viper configuration.
type settings struct {
	BaseURL string
	Timeout time.Duration

	Model string
	Voice string

	Budget   tts.RateBudget
	RateMode string

	PricePerMillion float64
	Markdown        bool

	Cache cache.Config
}

func (s settings) voiceConfig() tts.VoiceConfig {
	return tts.VoiceConfig{Model: s.Model, Voice: s.Voice}
}

func setDefaults() {
	defaults := cache.DefaultConfig()

	viper.SetDefault("api.base_url", tts.DefaultBaseURL)
	viper.SetDefault("api.timeout", tts.DefaultTimeout)
	viper.SetDefault("speech.model", tts.DefaultModel)
	viper.SetDefault("speech.voice", tts.DefaultVoice)
	viper.SetDefault("rate_limit.requests", tts.DefaultRateBudget.Requests)
	viper.SetDefault("rate_limit.window", tts.DefaultRateBudget.Window)
	viper.SetDefault("rate_limit.mode", tts.PaceRequests)
	viper.SetDefault("pricing.per_million", tts.DefaultPricePerMillion)
	viper.SetDefault("input.markdown", false)

	viper.SetDefault("cache.driver", defaults.Driver)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.max_size", defaults.DiskCapacity/megabyte)
	viper.SetDefault("cache.memory_size", defaults.MemoryCapacity/megabyte)
	viper.SetDefault("cache.compression_level", defaults.CompressionLevel)
	viper.SetDefault("cache.redis.addr", defaults.RedisAddr)
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)
	viper.SetDefault("cache.redis.prefix", defaults.RedisPrefix)
	viper.SetDefault("cache.redis.ttl", defaults.RedisTTL)
	viper.SetDefault("cache.nats.url", defaults.NATSURL)
	viper.SetDefault("cache.nats.bucket", defaults.NATSBucket)
	viper.SetDefault("cache.sqlite.path", "")
}

func defaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "narrate").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

// loadSettings reads and validates the configuration from viper.
func loadSettings() (settings, error) {
	cacheDir := utils.ExpandPath(viper.GetString("cache.dir"))
	if cacheDir == "" {
		var err error
		if cacheDir, err = defaultCacheDir(); err != nil {
			return settings{}, err
		}
	}

	s := settings{
		BaseURL: viper.GetString("api.base_url"),
		Timeout: viper.GetDuration("api.timeout"),
		Model:   viper.GetString("speech.model"),
		Voice:   viper.GetString("speech.voice"),
		Budget: tts.RateBudget{
			Requests: viper.GetInt("rate_limit.requests"),
			Window:   viper.GetDuration("rate_limit.window"),
		},
		RateMode:        viper.GetString("rate_limit.mode"),
		PricePerMillion: viper.GetFloat64("pricing.per_million"),
		Markdown:        viper.GetBool("input.markdown"),
		Cache: cache.Config{
			Driver:           viper.GetString("cache.driver"),
			MemoryCapacity:   viper.GetInt64("cache.memory_size") * megabyte,
			DiskCapacity:     viper.GetInt64("cache.max_size") * megabyte,
			DiskPath:         cacheDir,
			CompressionLevel: viper.GetInt("cache.compression_level"),
			RedisAddr:        viper.GetString("cache.redis.addr"),
			RedisPassword:    viper.GetString("cache.redis.password"),
			RedisDB:          viper.GetInt("cache.redis.db"),
			RedisPrefix:      viper.GetString("cache.redis.prefix"),
			RedisTTL:         viper.GetDuration("cache.redis.ttl"),
			NATSURL:          viper.GetString("cache.nats.url"),
			NATSBucket:       viper.GetString("cache.nats.bucket"),
			SQLitePath:       utils.ExpandPath(viper.GetString("cache.sqlite.path")),
		},
	}
	return s, s.validate()
}

func (s settings) validate() error {
	var errs []error
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", s.Timeout))
	}
	if s.Budget.Requests < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.requests must be at least 1, got %d", s.Budget.Requests))
	}
	if s.Budget.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be positive, got %s", s.Budget.Window))
	}
	if s.PricePerMillion < 0 {
		errs = append(errs, fmt.Errorf("pricing.per_million must not be negative, got %.2f", s.PricePerMillion))
	}
	if s.Cache.DiskCapacity < 0 || s.Cache.MemoryCapacity < 0 {
		errs = append(errs, errors.New("cache sizes must not be negative"))
	}
	if s.Cache.RedisTTL < 0 {
		errs = append(errs, fmt.Errorf("cache.redis.ttl must not be negative, got %s", s.Cache.RedisTTL))
	}
	if lvl := s.Cache.CompressionLevel; lvl < 0 || lvl > 22 {
		errs = append(errs, fmt.Errorf("cache.compression_level must be between 0 and 22, got %d", lvl))
	}
	return errors.Join(errs...)
}
