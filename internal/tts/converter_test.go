package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dgnsrekt/narrate/internal/audio"
)

func newTestConverter(synth Synthesizer, store ArtifactStore) *Converter {
	return NewConverter(synth, store, RequestPacer{Budget: DefaultRateBudget, Clock: &fakeClock{}})
}

func TestConvert_AssemblesAndCaches(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	synth := &fakeSynth{}
	c := newTestConverter(synth, store)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200) // 9000 chars
	req := testRequest
	req.Text = text

	rec := &progressRecorder{}
	got, err := c.Convert(ctx, req, rec.record)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if string(got.Data) != text {
		t.Error("assembled audio does not follow chunk order")
	}
	if got.MediaType != audio.MediaTypeMP3 {
		t.Errorf("MediaType = %q", got.MediaType)
	}
	if synth.callCount() != 3 {
		t.Errorf("made %d requests, want 3", synth.callCount())
	}

	cached, ok := store.Get(ctx, ComputeCacheKey(text, req.VoiceConfig(), PurposeAudio))
	if !ok || string(cached.Data) != text {
		t.Error("whole-text result not cached")
	}

	for i := 1; i < len(rec.values); i++ {
		if rec.values[i] < rec.values[i-1] {
			t.Errorf("progress decreased: %v", rec.values)
		}
	}
	if last := rec.values[len(rec.values)-1]; last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}

func TestConvert_WholeTextHitMakesNoRequests(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte{0xFF, 0xFB})
	}))
	defer srv.Close()

	store := newMemoryStore()
	req := testRequest
	req.Text = "Already converted."
	want := audio.Artifact{Data: []byte("cached mp3"), MediaType: audio.MediaTypeMP3}
	store.Put(ctx, ComputeCacheKey(req.Text, req.VoiceConfig(), PurposeAudio), want)

	c := newTestConverter(NewSpeechClient(WithBaseURL(srv.URL)), store)

	progressCalled := false
	got, err := c.Convert(ctx, req, func(float64) { progressCalled = true })
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if string(got.Data) != string(want.Data) {
		t.Errorf("got %q, want cached artifact", got.Data)
	}
	if hits.Load() != 0 {
		t.Errorf("server received %d requests", hits.Load())
	}
	if progressCalled {
		t.Error("progress reported for a whole-text hit")
	}
}

func TestConvert_FailureReturnsError(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	synth := &fakeSynth{failOn: 1, err: NewTTSError(ErrorCodeNetworkFailure, "boom", nil)}
	c := newTestConverter(synth, store)

	req := testRequest
	req.Text = "Short text."
	if _, err := c.Convert(ctx, req, nil); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := store.Get(ctx, ComputeCacheKey(req.Text, req.VoiceConfig(), PurposeAudio)); ok {
		t.Error("failed conversion cached a whole-text result")
	}
}

func TestConvert_ServerFailsThirdRequest(t *testing.T) {
	ctx := context.Background()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 3 {
			http.Error(w, `{"error":{"message":"upstream timeout"}}`, http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte{0xFF, 0xFB})
	}))
	defer srv.Close()

	// Five sentences of 4000 characters split into five chunks.
	var b strings.Builder
	for i := range 5 {
		b.WriteString(strings.Repeat(string(rune('a'+i)), 3998) + ". ")
	}
	req := testRequest
	req.Text = b.String()

	chunks := Chunks(req.Text)
	if len(chunks) != 5 {
		t.Fatalf("got %d chunks, want 5", len(chunks))
	}

	store := newMemoryStore()
	c := newTestConverter(NewSpeechClient(WithBaseURL(srv.URL)), store)

	_, err := c.Convert(ctx, req, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var tErr *TTSError
	if !errors.As(err, &tErr) || tErr.Code != ErrorCodeNetworkFailure {
		t.Fatalf("error = %v, want NETWORK_FAILURE", err)
	}
	if !strings.Contains(err.Error(), "upstream timeout") {
		t.Errorf("error %q does not carry the response body", err)
	}
	if requests.Load() != 3 {
		t.Errorf("server received %d requests, want 3", requests.Load())
	}

	voice := req.VoiceConfig()
	for i, chunk := range chunks {
		_, cached := store.Get(ctx, ComputeCacheKey(chunk.Text, voice, PurposeChunk))
		if want := i < 2; cached != want {
			t.Errorf("chunk %d cached = %v, want %v", i+1, cached, want)
		}
	}
	if _, ok := store.Get(ctx, ComputeCacheKey(req.Text, voice, PurposeAudio)); ok {
		t.Error("failed conversion cached a whole-text result")
	}
}

func TestConvert_EmptyText(t *testing.T) {
	c := newTestConverter(&fakeSynth{}, newMemoryStore())

	got, err := c.Convert(context.Background(), testRequest, nil)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("empty text produced %d bytes", got.Size())
	}
}

func TestConvert_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestConverter(&fakeSynth{}, newMemoryStore())
	req := testRequest
	req.Text = "Never sent."

	_, err := c.Convert(ctx, req, nil)
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("error = %v, want ErrCanceled", err)
	}
}

func TestEstimateCost(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	c := newTestConverter(&fakeSynth{}, store)
	voice := testRequest.VoiceConfig()

	text := strings.Repeat("a", 2_000_000)
	est := c.EstimateCost(ctx, text, voice)
	if est.Cached {
		t.Fatal("uncached text reported as cached")
	}
	if est.Characters != 2_000_000 {
		t.Errorf("Characters = %d", est.Characters)
	}
	if est.Dollars != 30 {
		t.Errorf("Dollars = %v, want 30", est.Dollars)
	}
	if label := c.EstimateCostLabel(ctx, text, voice); label != "¢3000.00" {
		t.Errorf("label = %q, want ¢3000.00", label)
	}

	store.Put(ctx, ComputeCacheKey(text, voice, PurposeAudio), audio.Artifact{Data: []byte("x")})
	if label := c.EstimateCostLabel(ctx, text, voice); label != "(cached)" {
		t.Errorf("label = %q, want (cached)", label)
	}

	// A different voice is not cached
	other := VoiceConfig{Model: voice.Model, Voice: "nova"}
	if c.EstimateCost(ctx, text, other).Cached {
		t.Error("cache hit across voices")
	}
}

func TestEstimateCost_CustomPrice(t *testing.T) {
	c := NewConverter(&fakeSynth{}, newMemoryStore(), RequestPacer{Budget: DefaultRateBudget, Clock: &fakeClock{}},
		WithPricePerMillion(30))

	if label := c.EstimateCostLabel(context.Background(), strings.Repeat("é", 1000), testRequest.VoiceConfig()); label != "¢3.00" {
		t.Errorf("label = %q, want ¢3.00", label)
	}
}

func TestMonotonic(t *testing.T) {
	rec := &progressRecorder{}
	fn := monotonic(rec.record)
	for _, p := range []float64{0, 0.5, 0.25, 0.75, 0.6, 1} {
		fn(p)
	}

	want := []float64{0, 0.5, 0.5, 0.75, 0.75, 1}
	for i := range want {
		if rec.values[i] != want[i] {
			t.Errorf("value %d = %v, want %v", i, rec.values[i], want[i])
		}
	}

	if monotonic(nil) != nil {
		t.Error("monotonic(nil) should stay nil")
	}
}
