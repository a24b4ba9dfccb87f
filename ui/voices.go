package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/dgnsrekt/narrate/internal/tts"
)

// VoicesMarkdown lists the known voices and models as markdown tables,
// marking the configured ones.
func VoicesMarkdown(current tts.VoiceConfig) string {
	var b strings.Builder

	b.WriteString("# Voices\n\n| Voice | Description | |\n|---|---|---|\n")
	for _, v := range tts.KnownVoices {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", v.Name, v.Description, marker(v.Name == current.Voice))
	}

	b.WriteString("\n# Models\n\n| Model | Description | |\n|---|---|---|\n")
	for _, m := range tts.KnownModels {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Name, m.Description, marker(m.Name == current.Model))
	}
	return b.String()
}

func marker(selected bool) string {
	if selected {
		return "current"
	}
	return ""
}

// RenderVoices renders VoicesMarkdown with glamour using the named style
// ("auto", "dark", "light", "notty", ...) wrapped at width.
func RenderVoices(current tts.VoiceConfig, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(VoicesMarkdown(current))
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
