package tts

import "time"

// Defaults for the speech endpoint.
const (
	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultModel           = "tts-1"
	DefaultVoice           = "alloy"
	DefaultTimeout         = 2 * time.Minute
	DefaultPricePerMillion = 15.0
)

// SpeechRequest is one conversion: the full text plus the voice settings and
// the credential used for every chunk.
type SpeechRequest struct {
	Text       string
	Model      string
	Voice      string
	Credential string
}

// VoiceConfig returns the fingerprinted part of the request.
func (r SpeechRequest) VoiceConfig() VoiceConfig {
	return VoiceConfig{Model: r.Model, Voice: r.Voice}
}

// ProgressFunc receives the completed fraction of a conversion in [0,1].
type ProgressFunc func(fraction float64)

// Estimate is the price of converting a text.
type Estimate struct {
	// Cached is set when the whole text is already in the cache
	Cached bool

	Characters int
	Dollars    float64
	Cents      float64
}

// Progress describes how far a conversion has come.
type Progress struct {
	Completed int // Chunks done
	Total     int // Total chunks
	Requests  int // Network requests issued
	CacheHits int // Chunks served from cache
}

// Fraction returns Completed/Total, or 0 when there are no chunks.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}
