package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/narrate/internal/audio"
)

// Fetcher resolves chunks to audio, from the store when possible and from
// the Synthesizer otherwise, pacing network requests.
type Fetcher struct {
	synth  Synthesizer
	store  ArtifactStore
	pacer  Pacer
	logger *log.Logger
}

// NewFetcher creates a Fetcher. A nil logger uses the default logger.
func NewFetcher(synth Synthesizer, store ArtifactStore, pacer Pacer, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{synth: synth, store: store, pacer: pacer, logger: logger}
}

// FetchChunks returns one artifact per chunk, in order. Chunks are processed
// sequentially; the first failed request aborts the run. Fresh audio is
// stored under its chunk key before moving on, so a later run reuses it.
func (f *Fetcher) FetchChunks(ctx context.Context, chunks []Chunk, req SpeechRequest, onProgress ProgressFunc) ([]audio.Artifact, error) {
	report := func(p float64) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	voice := req.VoiceConfig()
	progress := Progress{Total: len(chunks)}
	artifacts := make([]audio.Artifact, 0, len(chunks))

	for _, chunk := range chunks {
		report(progress.Fraction())

		key := ComputeCacheKey(chunk.Text, voice, PurposeChunk)
		if a, ok := f.store.Get(ctx, key); ok {
			f.logger.Debug("chunk from cache", "chunk", chunk.Index, "size", humanize.Bytes(uint64(a.Size())))
			artifacts = append(artifacts, a)
			progress.CacheHits++
			progress.Completed++
			continue
		}

		if err := f.pacer.Wait(ctx, chunk.Index, progress.Requests); err != nil {
			if ctx.Err() != nil || isContextErr(err) {
				return nil, canceled(err)
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		f.logger.Debug("requesting speech", "chunk", chunk.Index, "of", progress.Total,
			"chars", len([]rune(chunk.Text)))

		a, err := f.synth.Synthesize(ctx, chunk.Text, voice, req.Credential)
		progress.Requests++
		if err != nil {
			var tErr *TTSError
			if errors.As(err, &tErr) {
				tErr.WithContext("chunk", chunk.Index)
			}
			return nil, err
		}

		f.store.Put(ctx, key, a)
		artifacts = append(artifacts, a)
		progress.Completed++
	}

	report(1)

	f.logger.Info("chunks fetched", "chunks", progress.Total,
		"requests", progress.Requests, "cached", progress.CacheHits)

	return artifacts, nil
}
