package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/internal/source"
	"github.com/dgnsrekt/narrate/internal/tts"
)

var errMissingSource = errors.New("missing source: pass a file, a URL, - for stdin or --clipboard")

const resumeHint = "cached chunks are kept; re-run to resume"

// app is the wired conversion pipeline.
type app struct {
	settings  settings
	backend   cache.Backend
	converter *tts.Converter
}

func newApp(ctx context.Context, s settings) (*app, error) {
	logger := log.Default()

	backend, err := cache.Open(ctx, s.Cache, logger.WithPrefix("cache"))
	if err != nil {
		return nil, fmt.Errorf("unable to open cache: %w", err)
	}

	pacer, err := tts.NewPacer(s.RateMode, s.Budget, tts.RealClock{})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	client := tts.NewSpeechClient(
		tts.WithBaseURL(s.BaseURL),
		tts.WithHTTPClient(&http.Client{Timeout: s.Timeout}),
	)
	store := cache.NewAudioStore(backend, logger.WithPrefix("cache"))

	return &app{
		settings: s,
		backend:  backend,
		converter: tts.NewConverter(client, store, pacer,
			tts.WithPricePerMillion(s.PricePerMillion),
			tts.WithLogger(logger.WithPrefix("convert")),
		),
	}, nil
}

func (a *app) Close() error {
	if m, ok := a.backend.(*cache.Manager); ok {
		logCacheStats(log.Default().WithPrefix("cache"), m.Stats())
	}
	return a.backend.Close()
}

func logCacheStats(logger *log.Logger, st cache.ManagerStats) {
	kv := []any{
		"l1_hits", st.L1Hits,
		"l2_hits", st.L2Hits,
		"misses", st.TotalMisses,
		"promotions", st.Promotions,
		"hit_rate", fmt.Sprintf("%.0f%%", st.HitRate*100),
		"l1_size", humanize.Bytes(uint64(st.L1.Size)), //nolint:gosec
	}
	if st.L2 != nil {
		kv = append(kv, "l2_size", humanize.Bytes(uint64(st.L2.Size))) //nolint:gosec
	}
	logger.Debug("cache usage", kv...)
}

// credential picks the API key: explicit (flag or NARRATE_API_KEY), then
// OPENAI_API_KEY, then the one saved after the last successful run.
func (a *app) credential(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("OPENAI_API_KEY"); env != "" {
		return env
	}
	if saved, ok := cache.LoadCredential(ctx, a.backend); ok {
		log.Debug("using saved credential")
		return saved
	}
	return ""
}

// readInput reads the text to convert from the clipboard, the argument or
// a piped stdin. Markdown is reduced to plain text when forced or when the
// source is a markdown file.
func readInput(ctx context.Context, args []string, clipboard, markdown bool) (string, error) {
	var (
		src *source.Source
		err error
	)

	switch {
	case clipboard:
		src, err = source.FromClipboard()
	case len(args) > 0:
		src, err = source.FromArg(ctx, args[0])
	default:
		pipe, perr := source.StdinIsPipe()
		if perr != nil {
			return "", perr
		}
		if !pipe {
			return "", errMissingSource
		}
		src, err = source.FromArg(ctx, "-")
	}
	if err != nil {
		return "", err
	}

	return src.Text(markdown || src.IsMarkdown())
}

// convertLabel renders the action label, e.g. "Convert to Speech (¢0.12)".
func convertLabel(costLabel string) string {
	if strings.HasPrefix(costLabel, "(") {
		return "Convert to Speech " + costLabel
	}
	return "Convert to Speech (" + costLabel + ")"
}

// withResumeHint adds a hint to failures that a second run may get past.
func withResumeHint(err error) error {
	var tErr *tts.TTSError
	if errors.As(err, &tErr) && tErr.IsRetryable() {
		return fmt.Errorf("%w\n\n%s", err, resumeHint)
	}
	return err
}
