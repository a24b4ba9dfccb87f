// Package tts converts text to speech through an OpenAI-compatible
// endpoint: it splits the text into chunks, fetches them at a bounded
// rate, reuses cached audio and joins the parts into one artifact.
package tts

import (
	"context"

	"github.com/dgnsrekt/narrate/internal/audio"
)

// Synthesizer turns one chunk of text into audio.
// Implementations must not retry; the caller decides what a failure means.
type Synthesizer interface {
	// Synthesize returns the audio for text, tagged with the media type
	// reported by the provider.
	Synthesize(ctx context.Context, text string, voice VoiceConfig, credential string) (audio.Artifact, error)
}

// ArtifactStore keeps synthesized audio between runs.
// Get reports false for absent or unreadable entries; Put never fails.
type ArtifactStore interface {
	Get(ctx context.Context, key string) (audio.Artifact, bool)
	Put(ctx context.Context, key string, a audio.Artifact)
}
