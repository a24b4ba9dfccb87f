package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/narrate/ui"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the available voices and models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		style, width := styles.AutoStyle, 80
		isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
		if !isTerminal {
			style = styles.NoTTYStyle
		} else if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = min(w, 120)
		}

		out, err := ui.RenderVoices(s.voiceConfig(), style, width)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}
