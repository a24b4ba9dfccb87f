package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/utils"
)

var watchEstimate bool

var errWatchNeedsFile = errors.New("--watch needs a file to watch")

var estimateCmd = &cobra.Command{
	Use:   "estimate [SOURCE]",
	Short: "Print what converting a text would cost",
	Long: paragraph(fmt.Sprintf("\n%s the cost of converting a text. Texts that are already cached are free. "+
		"With --watch the price is printed again every time the file changes.", keyword("Estimate"))),
	Example: paragraph("narrate estimate notes.md\nnarrate estimate --watch draft.txt"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if watchEstimate && (len(args) == 0 || args[0] == "-" || fromClipboard) {
			return errWatchNeedsFile
		}

		s, err := loadSettings()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, s)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		estimate := func() error {
			text, err := readInput(ctx, args, fromClipboard, s.Markdown)
			if err != nil {
				return err
			}
			return printEstimate(cmd.OutOrStdout(), a.converter.EstimateCost(ctx, text, s.voiceConfig()))
		}
		if err := estimate(); err != nil {
			return err
		}

		if !watchEstimate {
			return nil
		}
		return watchFile(ctx, utils.ExpandPath(args[0]), func() {
			if err := estimate(); err != nil {
				log.Warn("could not re-estimate", "err", err)
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			}
		})
	},
}

func printEstimate(w io.Writer, e tts.Estimate) error {
	if e.Cached {
		_, err := fmt.Fprintln(w, tts.FormatEstimate(e))
		return err
	}
	_, err := fmt.Fprintf(w, "%s (%s characters)\n", tts.FormatEstimate(e), humanize.Comma(int64(e.Characters)))
	return err
}

// watchFile calls onChange whenever path is written or replaced, until ctx
// ends. The parent directory is watched so editors that save by renaming
// are picked up.
func watchFile(ctx context.Context, path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch %s: %w", path, err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", path, err)
	}
	log.Debug("watching", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		}
	}
}

func init() {
	estimateCmd.Flags().BoolVarP(&watchEstimate, "watch", "w", false, "re-estimate whenever the file changes")
}
