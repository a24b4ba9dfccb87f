package tts

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/cache"
)

// fakeClock records sleeps instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.mu.Lock()
		c.sleeps = append(c.sleeps, d)
		c.mu.Unlock()
	}
	return nil
}

func (c *fakeClock) total() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum time.Duration
	for _, d := range c.sleeps {
		sum += d
	}
	return sum
}

// fakeSynth echoes the chunk text back as audio bytes, so assembled output
// equals the input text.
type fakeSynth struct {
	mu     sync.Mutex
	calls  []string
	failOn int // 1-based call number that fails; 0 never fails
	err    error
}

func (s *fakeSynth) Synthesize(_ context.Context, text string, _ VoiceConfig, _ string) (audio.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, text)
	if s.failOn > 0 && len(s.calls) == s.failOn {
		return audio.Artifact{}, s.err
	}
	return audio.Artifact{Data: []byte(text), MediaType: audio.MediaTypeMP3}, nil
}

func (s *fakeSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newMemoryStore() *cache.AudioStore {
	return cache.NewAudioStore(cache.NewMemoryBackend(0), nil)
}

// progressRecorder collects reported fractions.
type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (r *progressRecorder) record(p float64) {
	r.mu.Lock()
	r.values = append(r.values, p)
	r.mu.Unlock()
}
