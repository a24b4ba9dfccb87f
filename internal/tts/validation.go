package tts

import (
	"fmt"
	"strings"
)

// ValidationResult contains the result of checking voice settings
type ValidationResult struct {
	// Config is the checked voice configuration
	Config VoiceConfig

	// Warnings lists settings the default endpoint does not know.
	// Compatible endpoints may still accept them.
	Warnings []string

	// Guidance suggests close matches for unknown settings
	Guidance string
}

// OK reports whether there were no warnings.
func (r *ValidationResult) OK() bool {
	return len(r.Warnings) == 0
}

// ValidateRequest checks what the speech endpoint cannot do without.
// Failures are INVALID_INPUT TTSErrors wrapping ErrEmptyText or
// ErrMissingCredential.
func ValidateRequest(req SpeechRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return NewTTSError(ErrorCodeInvalidInput, "nothing to convert", ErrEmptyText)
	}
	if req.Credential == "" {
		return NewTTSError(ErrorCodeInvalidInput, "missing credential", ErrMissingCredential)
	}
	if req.Model == "" || req.Voice == "" {
		return NewTTSError(ErrorCodeInvalidInput, "model and voice are required", nil).
			WithContext("model", req.Model).
			WithContext("voice", req.Voice)
	}
	return nil
}

// CheckVoiceConfig compares cfg against the known models and voices and
// suggests close matches for unknown ones.
func CheckVoiceConfig(cfg VoiceConfig) *ValidationResult {
	result := &ValidationResult{Config: cfg}
	var guidance []string

	if !IsKnownModel(cfg.Model) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown model %q", cfg.Model))
		if s := SuggestModel(cfg.Model); len(s) > 0 {
			guidance = append(guidance, fmt.Sprintf("model: did you mean %s?", strings.Join(s, ", ")))
		}
	}

	if !IsKnownVoice(cfg.Voice) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown voice %q", cfg.Voice))
		if s := SuggestVoice(cfg.Voice); len(s) > 0 {
			guidance = append(guidance, fmt.Sprintf("voice: did you mean %s?", strings.Join(s, ", ")))
		}
	}

	if len(result.Warnings) > 0 && len(guidance) == 0 {
		guidance = append(guidance, "run `narrate voices` to list models and voices")
	}
	result.Guidance = strings.Join(guidance, "\n")

	return result
}
