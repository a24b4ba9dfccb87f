package tts

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/dgnsrekt/narrate/internal/audio"
)

// Converter turns whole texts into one audio artifact, reusing cached
// chunks and whole-text results.
type Converter struct {
	store           ArtifactStore
	fetcher         *Fetcher
	pricePerMillion float64
	logger          *log.Logger
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithPricePerMillion sets the price in dollars per million characters.
func WithPricePerMillion(price float64) ConverterOption {
	return func(c *Converter) {
		c.pricePerMillion = price
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// NewConverter wires the pipeline around a Synthesizer, a store and a pacer.
func NewConverter(synth Synthesizer, store ArtifactStore, pacer Pacer, opts ...ConverterOption) *Converter {
	c := &Converter{
		store:           store,
		pricePerMillion: DefaultPricePerMillion,
		logger:          log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fetcher = NewFetcher(synth, store, pacer, c.logger.WithPrefix("fetch"))
	return c
}

// Convert returns the audio for req.Text. A whole-text cache hit returns
// immediately without reporting progress. Otherwise progress is reported
// as the chunks complete, never decreasing, and the assembled result is
// stored for next time.
func (c *Converter) Convert(ctx context.Context, req SpeechRequest, onProgress ProgressFunc) (audio.Artifact, error) {
	logger := c.logger.With("conversion", uuid.NewString())
	voice := req.VoiceConfig()
	key := ComputeCacheKey(req.Text, voice, PurposeAudio)

	if a, ok := c.store.Get(ctx, key); ok {
		logger.Info("whole text cached", "size", humanize.Bytes(uint64(a.Size())))
		return a, nil
	}

	chunks := Chunks(req.Text)
	logger.Info("converting", "chars", utf8.RuneCountInString(req.Text),
		"chunks", len(chunks), "model", voice.Model, "voice", voice.Voice)

	start := time.Now()
	parts, err := c.fetcher.FetchChunks(ctx, chunks, req, monotonic(onProgress))
	if err != nil {
		logger.Error("conversion failed", "err", err)
		return audio.Artifact{}, err
	}

	result := audio.Concatenate(parts)
	c.store.Put(ctx, key, result)

	logger.Info("converted", "size", humanize.Bytes(uint64(result.Size())),
		"took", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// EstimateCost prices text. A cached text is free.
func (c *Converter) EstimateCost(ctx context.Context, text string, voice VoiceConfig) Estimate {
	if _, ok := c.store.Get(ctx, ComputeCacheKey(text, voice, PurposeAudio)); ok {
		return Estimate{Cached: true}
	}

	chars := utf8.RuneCountInString(text)
	dollars := float64(chars) / 1_000_000 * c.pricePerMillion
	return Estimate{
		Characters: chars,
		Dollars:    dollars,
		Cents:      dollars * 100,
	}
}

// EstimateCostLabel formats EstimateCost as "(cached)" or "¢12.34".
func (c *Converter) EstimateCostLabel(ctx context.Context, text string, voice VoiceConfig) string {
	return FormatEstimate(c.EstimateCost(ctx, text, voice))
}

// FormatEstimate renders an Estimate the way EstimateCostLabel does.
func FormatEstimate(e Estimate) string {
	if e.Cached {
		return "(cached)"
	}
	return fmt.Sprintf("¢%.2f", e.Cents)
}

// monotonic wraps fn so reported values never decrease.
func monotonic(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return nil
	}
	var (
		mu   sync.Mutex
		last float64
	)
	return func(p float64) {
		mu.Lock()
		if p < last {
			p = last
		}
		last = p
		mu.Unlock()
		fn(p)
	}
}
