package cache

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	diskIndexFile     = "cache.index"
	diskFileExt       = ".cache"
	compressThreshold = 1024 // Only compress values larger than 1KB
)

// DiskBackend implements a persistent file-per-key backend with optional
// zstd compression and a byte capacity enforced by LRU eviction.
type DiskBackend struct {
	basePath string
	capacity int64 // Maximum size in bytes, 0 for unbounded
	size     int64 // Current size on disk in bytes

	// Compression
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	// Index for fast lookups
	index map[string]*diskEntry

	// Synchronization
	mu sync.Mutex

	// Metrics
	stats CacheStats
}

// diskEntry represents an entry in the disk cache index
type diskEntry struct {
	Key          string
	FilePath     string
	Size         int64 // Size on disk (compressed)
	OriginalSize int64 // Original size (uncompressed)
	Timestamp    time.Time
	LastAccess   time.Time
	Hits         int64
	Compressed   bool
}

// NewDiskBackend creates a disk backend rooted at basePath. A compression
// level of zero disables zstd.
func NewDiskBackend(basePath string, capacity int64, compressionLevel int) (*DiskBackend, error) {
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskBackend{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats: CacheStats{
			Capacity: capacity,
		},
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}

		dc.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	// Non-fatal: a missing or unreadable index starts empty
	if err := dc.loadIndex(); err != nil {
		dc.index = make(map[string]*diskEntry)
	}
	dc.calculateSize()

	return dc, nil
}

// Get retrieves a value from the disk cache.
func (dc *DiskBackend) Get(_ context.Context, key string) (string, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return "", ErrCacheMiss
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		// File missing, remove from index
		dc.dropEntry(entry)
		dc.stats.Misses++
		return "", ErrCacheMiss
	}

	if entry.Compressed {
		if dc.decoder == nil {
			dc.dropEntry(entry)
			return "", fmt.Errorf("%w: compressed entry without decoder", ErrCacheCorrupted)
		}
		decompressed, err := dc.decoder.DecodeAll(data, nil)
		if err != nil {
			dc.dropEntry(entry)
			return "", fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		data = decompressed
	}

	entry.LastAccess = time.Now()
	entry.Hits++

	dc.stats.Hits++
	dc.stats.LastAccess = entry.LastAccess

	return string(data), nil
}

// Set stores a value in the disk cache.
func (dc *DiskBackend) Set(_ context.Context, key, value string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	raw := []byte(value)
	dataToWrite := raw
	compressed := false

	if dc.encoder != nil && len(raw) > compressThreshold {
		// Only use compression if it actually reduces size
		if c := dc.encoder.EncodeAll(raw, nil); len(c) < len(raw) {
			dataToWrite = c
			compressed = true
		}
	}

	diskSize := int64(len(dataToWrite))
	if dc.capacity > 0 && diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.dropEntry(existing)
	}

	if dc.capacity > 0 {
		for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
			dc.evictOldest()
		}
	}

	filePath := dc.generateFilePath(key)
	if err := writeFileAtomic(filePath, dataToWrite); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := time.Now()
	dc.index[key] = &diskEntry{
		Key:          key,
		FilePath:     filePath,
		Size:         diskSize,
		OriginalSize: int64(len(raw)),
		Timestamp:    now,
		LastAccess:   now,
		Compressed:   compressed,
	}
	dc.size += diskSize

	return dc.saveIndex()
}

// Delete removes an entry from the disk cache.
func (dc *DiskBackend) Delete(_ context.Context, key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		return nil
	}

	dc.dropEntry(entry)
	return dc.saveIndex()
}

// Clear removes all entries from the disk cache.
func (dc *DiskBackend) Clear(context.Context) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		_ = os.Remove(entry.FilePath)
	}

	dc.index = make(map[string]*diskEntry)
	dc.size = 0

	return dc.saveIndex()
}

// Close saves the index and releases the zstd coders.
func (dc *DiskBackend) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	err := dc.saveIndex()
	if dc.encoder != nil {
		err = errors.Join(err, dc.encoder.Close())
	}
	if dc.decoder != nil {
		dc.decoder.Close()
	}
	return err
}

// Size returns the current cache size in bytes.
func (dc *DiskBackend) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	return dc.size
}

// Stats returns cache statistics.
func (dc *DiskBackend) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.index))
	stats.updateHitRate()
	return stats
}

// RemoveOlderThan removes entries last read or written before cutoff.
func (dc *DiskBackend) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for _, entry := range dc.index {
		if entry.LastAccess.Before(cutoff) {
			dc.dropEntry(entry)
			removed++
		}
	}

	if removed > 0 {
		_ = dc.saveIndex()
	}
	return removed
}

// Private helper methods

func (dc *DiskBackend) generateFilePath(key string) string {
	// Use SHA256 hash of key for filename
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(dc.basePath, hex.EncodeToString(hash[:16])+diskFileExt)
}

// dropEntry removes an entry and its file (must be called with lock held).
func (dc *DiskBackend) dropEntry(entry *diskEntry) {
	_ = os.Remove(entry.FilePath)
	delete(dc.index, entry.Key)
	dc.size -= entry.Size
}

func (dc *DiskBackend) evictOldest() {
	var oldest *diskEntry
	for _, entry := range dc.index {
		if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
			oldest = entry
		}
	}

	if oldest != nil {
		dc.dropEntry(oldest)
		dc.stats.Evictions++
		dc.stats.LastEvict = time.Now()
	}
}

func (dc *DiskBackend) loadIndex() error {
	file, err := os.Open(filepath.Join(dc.basePath, diskIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No index file yet
		}
		return err
	}
	defer file.Close() //nolint:errcheck

	return gob.NewDecoder(file).Decode(&dc.index)
}

func (dc *DiskBackend) saveIndex() error {
	indexPath := filepath.Join(dc.basePath, diskIndexFile)
	tempPath := indexPath + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(file).Encode(dc.index)
	closeErr := file.Close()

	if err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, indexPath)
}

func (dc *DiskBackend) calculateSize() {
	dc.size = 0
	for _, entry := range dc.index {
		dc.size += entry.Size
	}
}

func writeFileAtomic(path string, data []byte) error {
	// Write to temp file first, then rename (atomic on most systems)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}
