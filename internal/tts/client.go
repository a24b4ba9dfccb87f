package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dgnsrekt/narrate/internal/audio"
)

const speechEndpoint = "/audio/speech"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 64 * 1024

// SpeechClient calls an OpenAI-compatible /audio/speech endpoint.
type SpeechClient struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures a SpeechClient.
type ClientOption func(*SpeechClient)

// WithBaseURL sets a custom base URL (for testing or proxies).
func WithBaseURL(url string) ClientOption {
	return func(c *SpeechClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *SpeechClient) {
		c.client = client
	}
}

// NewSpeechClient creates a client for DefaultBaseURL unless overridden.
func NewSpeechClient(opts ...ClientOption) *SpeechClient {
	c := &SpeechClient{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// speechRequest is the request body for the speech endpoint.
type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Synthesize posts one chunk. Any non-2xx status is a NETWORK_FAILURE
// carrying the response body.
func (c *SpeechClient) Synthesize(ctx context.Context, text string, voice VoiceConfig, credential string) (audio.Artifact, error) {
	body, err := json.Marshal(speechRequest{
		Model: voice.Model,
		Input: text,
		Voice: voice.Voice,
	})
	if err != nil {
		return audio.Artifact{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+speechEndpoint, bytes.NewReader(body))
	if err != nil {
		return audio.Artifact{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isContextErr(err) || ctx.Err() != nil {
			return audio.Artifact{}, canceled(err)
		}
		return audio.Artifact{}, NewTTSError(ErrorCodeNetworkFailure, "speech request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return audio.Artifact{}, NewTTSError(ErrorCodeNetworkFailure,
			"Failed to convert text to speech:\n\n"+string(msg), nil).
			WithContext("status", resp.StatusCode).
			WithContext("body", string(msg))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return audio.Artifact{}, canceled(err)
		}
		return audio.Artifact{}, NewTTSError(ErrorCodeNetworkFailure, "failed to read speech response", err)
	}

	return audio.Artifact{Data: data, MediaType: mediaType(resp.Header.Get("Content-Type"))}, nil
}

// mediaType strips parameters from a Content-Type and defaults to MP3.
func mediaType(contentType string) string {
	if contentType == "" {
		return audio.MediaTypeMP3
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		return audio.MediaTypeMP3
	}
	return mt
}
