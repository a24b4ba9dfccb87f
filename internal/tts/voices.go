package tts

import (
	"slices"

	"github.com/sahilm/fuzzy"
)

// Voice describes a voice offered by the speech endpoint.
type Voice struct {
	Name        string
	Description string
}

// KnownVoices lists the voices of the speech endpoint.
var KnownVoices = []Voice{
	{"alloy", "Neutral and balanced"},
	{"ash", "Clear and precise"},
	{"ballad", "Melodic and smooth"},
	{"coral", "Warm and friendly"},
	{"echo", "Resonant and deep"},
	{"fable", "Expressive, British accent"},
	{"nova", "Bright and energetic"},
	{"onyx", "Deep and authoritative"},
	{"sage", "Calm and thoughtful"},
	{"shimmer", "Soft and gentle"},
	{"verse", "Versatile and expressive"},
}

// Model describes a speech model.
type Model struct {
	Name        string
	Description string
}

// KnownModels lists the speech models.
var KnownModels = []Model{
	{"tts-1", "Optimized for speed"},
	{"tts-1-hd", "Optimized for quality"},
	{"gpt-4o-mini-tts", "Steerable, newest model"},
}

// IsKnownVoice reports whether name is in KnownVoices.
func IsKnownVoice(name string) bool {
	return slices.ContainsFunc(KnownVoices, func(v Voice) bool { return v.Name == name })
}

// IsKnownModel reports whether name is in KnownModels.
func IsKnownModel(name string) bool {
	return slices.ContainsFunc(KnownModels, func(m Model) bool { return m.Name == name })
}

// SuggestVoice returns known voices that fuzzily match name, best first.
func SuggestVoice(name string) []string {
	names := make([]string, len(KnownVoices))
	for i, v := range KnownVoices {
		names[i] = v.Name
	}
	return suggest(name, names)
}

// SuggestModel returns known models that fuzzily match name, best first.
func SuggestModel(name string) []string {
	names := make([]string, len(KnownModels))
	for i, m := range KnownModels {
		names[i] = m.Name
	}
	return suggest(name, names)
}

func suggest(pattern string, candidates []string) []string {
	if pattern == "" {
		return nil
	}
	matches := fuzzy.Find(pattern, candidates)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
