package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSBackend stores entries in a JetStream key-value bucket.
// Values are limited by the server's max payload (1MB by default), so
// large whole-document entries may be rejected; callers treat that as a
// failed best-effort write.
type NATSBackend struct {
	conn   *nats.Conn // owned connection, nil when the caller manages it
	bucket string
	kv     jetstream.KeyValue
}

// NewNATSBackend creates the bucket or binds to it when it already exists.
func NewNATSBackend(ctx context.Context, js jetstream.JetStream, bucket string) (*NATSBackend, error) {
	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Synthesized audio for the %s bucket.", bucket),
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create key-value bucket '%s': %w", bucket, err)
		}
		kv, err = js.KeyValue(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing key-value bucket '%s': %w", bucket, err)
		}
	}

	return &NATSBackend{bucket: bucket, kv: kv}, nil
}

// DialNATS connects to url and opens the bucket. The returned backend
// closes the connection on Close.
func DialNATS(ctx context.Context, url, bucket string) (*NATSBackend, error) {
	nc, err := nats.Connect(url, nats.Name("narrate"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	b, err := NewNATSBackend(ctx, js, bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}
	b.conn = nc
	return b, nil
}

// Get retrieves a value by key.
func (b *NATSBackend) Get(ctx context.Context, key string) (string, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get '%s' from bucket '%s': %w", key, b.bucket, err)
	}
	return string(entry.Value()), nil
}

// Set stores a value.
func (b *NATSBackend) Set(ctx context.Context, key, value string) error {
	if _, err := b.kv.PutString(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put '%s' to bucket '%s': %w", key, b.bucket, err)
	}
	return nil
}

// Delete purges a key and its history.
func (b *NATSBackend) Delete(ctx context.Context, key string) error {
	if err := b.kv.Purge(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to purge '%s' from bucket '%s': %w", key, b.bucket, err)
	}
	return nil
}

// Clear purges every key in the bucket.
func (b *NATSBackend) Clear(ctx context.Context) error {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("failed to list keys in bucket '%s': %w", b.bucket, err)
	}
	defer lister.Stop() //nolint:errcheck

	var keys []string
	for k := range lister.Keys() {
		keys = append(keys, k)
	}

	for _, k := range keys {
		if err := b.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the connection when the backend owns it.
func (b *NATSBackend) Close() error {
	if b.conn != nil {
		b.conn.Close()
	}
	return nil
}
