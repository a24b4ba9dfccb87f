package cache

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/narrate/internal/audio"
)

// CredentialKey is the store key under which the API credential is kept.
const CredentialKey = "apiKey"

// AudioStore keeps audio artifacts in a Backend as data URIs. Failures
// never propagate: reads degrade to misses and writes are dropped.
type AudioStore struct {
	backend Backend
	logger  *log.Logger
}

// NewAudioStore wraps backend. A nil logger uses the default logger.
func NewAudioStore(backend Backend, logger *log.Logger) *AudioStore {
	if logger == nil {
		logger = log.Default()
	}
	return &AudioStore{backend: backend, logger: logger}
}

// Get returns the artifact stored under key. Absence, a read error or an
// undecodable value all report false.
func (s *AudioStore) Get(ctx context.Context, key string) (audio.Artifact, bool) {
	val, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return audio.Artifact{}, false
	}

	a, err := audio.ParseDataURI(val)
	if err != nil {
		s.logger.Warn("discarding undecodable cache entry", "key", key, "err", err)
		return audio.Artifact{}, false
	}

	s.logger.Debug("cache hit", "key", key, "size", humanize.Bytes(uint64(a.Size())))
	return a, true
}

// Has reports whether key is present and decodable.
func (s *AudioStore) Has(ctx context.Context, key string) bool {
	_, ok := s.Get(ctx, key)
	return ok
}

// Put stores a under key. Failures are logged and swallowed.
func (s *AudioStore) Put(ctx context.Context, key string, a audio.Artifact) {
	if err := s.backend.Set(ctx, key, a.DataURI()); err != nil {
		s.logger.Warn("cache write failed", "key", key,
			"size", humanize.Bytes(uint64(a.Size())), "err", err)
		return
	}
	s.logger.Debug("cached", "key", key, "size", humanize.Bytes(uint64(a.Size())))
}

// LoadCredential returns the persisted credential, if any.
func LoadCredential(ctx context.Context, b Backend) (string, bool) {
	val, err := b.Get(ctx, CredentialKey)
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

// SaveCredential persists the credential under CredentialKey.
func SaveCredential(ctx context.Context, b Backend, credential string) error {
	return b.Set(ctx, CredentialKey, credential)
}
