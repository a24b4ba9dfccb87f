package audio

import (
	"fmt"
	"os"
	"path/filepath"
)

// Concatenate joins the ordered per-chunk payloads into a single MP3
// artifact. Chunk boundaries are byte-adjacent; nothing is re-encoded.
func Concatenate(parts []Artifact) Artifact {
	size := 0
	for _, p := range parts {
		size += len(p.Data)
	}

	data := make([]byte, 0, size)
	for _, p := range parts {
		data = append(data, p.Data...)
	}

	return Artifact{Data: data, MediaType: MediaTypeMP3}
}

// WriteFile writes the artifact to path, creating parent directories. The
// data is written to a temp file first and renamed into place.
func WriteFile(path string, a Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	_, err = file.Write(a.Data)
	closeErr := file.Close()

	if err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close output file: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to move audio into place: %w", err)
	}
	return nil
}
