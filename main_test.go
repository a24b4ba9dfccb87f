package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/internal/tts"
)

// setConfig overrides a viper key for the duration of the test.
func setConfig(t *testing.T, key string, value any) {
	t.Helper()
	old := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, old) })
}

func speechServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
			return
		}
		var body struct {
			Input string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3:" + body.Input))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvertLabel(t *testing.T) {
	tests := map[string]string{
		"(cached)": "Convert to Speech (cached)",
		"¢0.04":    "Convert to Speech (¢0.04)",
	}
	for in, want := range tests {
		if got := convertLabel(in); got != want {
			t.Errorf("convertLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrintEstimate(t *testing.T) {
	var buf bytes.Buffer
	if err := printEstimate(&buf, tts.Estimate{Characters: 12345, Cents: 18.5175}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "¢18.52 (12,345 characters)\n" {
		t.Errorf("printEstimate() = %q", got)
	}

	buf.Reset()
	_ = printEstimate(&buf, tts.Estimate{Cached: true})
	if got := buf.String(); got != "(cached)\n" {
		t.Errorf("printEstimate(cached) = %q", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := settings{
		Timeout:         time.Minute,
		Budget:          tts.DefaultRateBudget,
		PricePerMillion: 15,
		Cache:           cache.Config{CompressionLevel: 3},
	}
	if err := valid.validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	invalid := valid
	invalid.Budget.Requests = 0
	invalid.Cache.CompressionLevel = 30
	err := invalid.validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"rate_limit.requests", "cache.compression_level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	setConfig(t, "cache.dir", dir)
	setConfig(t, "speech.voice", "nova")
	setConfig(t, "rate_limit.window", "30s")
	setConfig(t, "cache.redis.ttl", "720h")

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.Voice != "nova" || s.Cache.DiskPath != dir {
		t.Errorf("settings = %+v", s)
	}
	if s.Budget.Window != 30*time.Second {
		t.Errorf("window = %s, want 30s", s.Budget.Window)
	}
	if s.Cache.RedisTTL != 720*time.Hour {
		t.Errorf("redis ttl = %s, want 720h", s.Cache.RedisTTL)
	}
	if s.Cache.DiskCapacity != 100*megabyte {
		t.Errorf("disk capacity = %d", s.Cache.DiskCapacity)
	}
}

func TestAppCredential(t *testing.T) {
	ctx := context.Background()
	t.Setenv("OPENAI_API_KEY", "")

	a, err := newApp(ctx, settings{
		BaseURL: "http://127.0.0.1:0",
		Timeout: time.Second,
		Budget:  tts.DefaultRateBudget,
		Cache:   cache.Config{Driver: cache.DriverMemory},
	})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close() //nolint:errcheck

	if got := a.credential(ctx, ""); got != "" {
		t.Errorf("credential = %q, want empty", got)
	}

	if err := cache.SaveCredential(ctx, a.backend, "sk-saved"); err != nil {
		t.Fatal(err)
	}
	if got := a.credential(ctx, ""); got != "sk-saved" {
		t.Errorf("credential = %q, want saved one", got)
	}

	t.Setenv("OPENAI_API_KEY", "sk-env")
	if got := a.credential(ctx, ""); got != "sk-env" {
		t.Errorf("credential = %q, want env one", got)
	}
	if got := a.credential(ctx, "sk-flag"); got != "sk-flag" {
		t.Errorf("credential = %q, want explicit one", got)
	}
}

func TestExecute_ConvertsAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := speechServer(t, &calls)
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "")

	setConfig(t, "api.base_url", srv.URL)
	setConfig(t, "cache.driver", cache.DriverDisk)
	setConfig(t, "cache.dir", filepath.Join(dir, "cache"))
	setConfig(t, "api_key", "sk-test")

	input := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(input, []byte("Hello there. General Kenobi."), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "speech.mp3")

	uiConfig.NoProgress = true
	t.Cleanup(func() { uiConfig.NoProgress = false })

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	rootCmd.SetArgs([]string{input, "-o", out})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "mp3:Hello there. General Kenobi." {
		t.Errorf("output = %q", data)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
	if !strings.Contains(stdout.String(), "Convert to Speech (cached)") {
		t.Errorf("label after conversion not cached: %q", stdout.String())
	}

	// No key given: the saved one is used and the whole text is cached.
	setConfig(t, "api_key", "")
	stdout.Reset()
	rootCmd.SetArgs([]string{input, "-o", out})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d after cached run, want 1", calls.Load())
	}
}

func TestExecute_MissingSource(t *testing.T) {
	dir := t.TempDir()
	setConfig(t, "cache.dir", dir)

	rootCmd.SetArgs([]string{filepath.Join(dir, "missing.txt")})
	if err := rootCmd.ExecuteContext(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWithResumeHint(t *testing.T) {
	network := tts.NewTTSError(tts.ErrorCodeNetworkFailure, "speech request failed", nil)
	err := withResumeHint(fmt.Errorf("convert: %w", network))
	if !strings.HasSuffix(err.Error(), resumeHint) {
		t.Errorf("network failure without hint: %q", err)
	}
	if !errors.Is(err, network) {
		t.Error("hint hides the original error")
	}

	for _, e := range []error{
		tts.NewTTSError(tts.ErrorCodeInvalidInput, "bad voice", nil),
		tts.ErrEmptyText,
	} {
		if got := withResumeHint(e); got != e {
			t.Errorf("withResumeHint(%v) = %v, want unchanged", e, got)
		}
	}
}

func TestExecute_NetworkFailureSuggestsResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"server overloaded"}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	dir := t.TempDir()

	setConfig(t, "api.base_url", srv.URL)
	setConfig(t, "cache.driver", cache.DriverDisk)
	setConfig(t, "cache.dir", filepath.Join(dir, "cache"))
	setConfig(t, "api_key", "sk-test")

	input := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(input, []byte("Hello there."), 0o600); err != nil {
		t.Fatal(err)
	}

	uiConfig.NoProgress = true
	t.Cleanup(func() { uiConfig.NoProgress = false })

	rootCmd.SetArgs([]string{input, "-o", filepath.Join(dir, "speech.mp3")})
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected error from failing server")
	}
	for _, want := range []string{"server overloaded", resumeHint} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not contain %q", err, want)
		}
	}
}

func TestLogCacheStats(t *testing.T) {
	ctx := context.Background()
	m := cache.NewManager(cache.NewMemoryBackend(0), 1024)
	defer m.Close() //nolint:errcheck

	_ = m.Set(ctx, "a", "1")
	_, _ = m.Get(ctx, "a")
	_, _ = m.Get(ctx, "missing")

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	logCacheStats(logger, m.Stats())

	for _, want := range []string{"cache usage", "l1_hits=1", "misses=1", "hit_rate=50%", "l2_size="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q does not contain %q", buf.String(), want)
		}
	}
}
