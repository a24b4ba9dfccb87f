package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const ellipsis = "…"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}
	subtleFg  = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	errorFg   = lipgloss.AdaptiveColor{Light: "#D9534F", Dark: "#FF5F87"}

	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(mintGreen)
	statusStyle = lipgloss.NewStyle().Foreground(subtleFg)
	errorStyle  = lipgloss.NewStyle().Foreground(errorFg)
	helpStyle   = lipgloss.NewStyle().Foreground(subtleFg).Faint(true)
)

// plainColor is the termenv color used by the line-based display.
const plainColor = "#89F0CB"

func plainOutput(profile termenv.Profile) func(string) string {
	return func(s string) string {
		return termenv.String(s).Foreground(profile.Color(plainColor)).String()
	}
}
