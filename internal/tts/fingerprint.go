package tts

import (
	"crypto/sha256"
	"encoding/hex"
)

// Purpose distinguishes whole-text entries from per-chunk entries in the cache.
type Purpose string

const (
	PurposeAudio Purpose = "audio"
	PurposeChunk Purpose = "chunk"
)

// VoiceConfig is the part of a request that affects the synthesized audio.
type VoiceConfig struct {
	Model string
	Voice string
}

// ComputeCacheKey returns "{purpose}-{model}-{voice}-{sha256-hex(text)}".
// An empty purpose behaves as PurposeAudio.
func ComputeCacheKey(text string, cfg VoiceConfig, purpose Purpose) string {
	if purpose == "" {
		purpose = PurposeAudio
	}
	hash := sha256.Sum256([]byte(text))
	return string(purpose) + "-" + cfg.Model + "-" + cfg.Voice + "-" + hex.EncodeToString(hash[:])
}
