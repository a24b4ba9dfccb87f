// Package main provides the entry point for the narrate CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/ui"
	"github.com/dgnsrekt/narrate/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	outputPath    string
	fromClipboard bool
	uiConfig      ui.Config

	rootCmd = &cobra.Command{
		Use:   "narrate [SOURCE]",
		Short: "Turn text into speech on the CLI",
		Long: paragraph(
			fmt.Sprintf("\nTurn text into speech, %s!", keyword("one MP3 at a time")),
		),
		Example: paragraph("narrate notes.md\ncat story.txt | narrate -o story.mp3 -v nova\nnarrate --clipboard"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("config") {
				return nil
			}
			return loadConfigFlag()
		},
		RunE: execute,
	}
)

func execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := loadSettings()
	if err != nil {
		return err
	}

	text, err := readInput(ctx, args, fromClipboard, s.Markdown)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, s)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	req := tts.SpeechRequest{
		Text:       text,
		Model:      s.Model,
		Voice:      s.Voice,
		Credential: a.credential(ctx, viper.GetString("api_key")),
	}
	if err := tts.ValidateRequest(req); err != nil {
		if errors.Is(err, tts.ErrMissingCredential) {
			return fmt.Errorf("%w: use --api-key or set NARRATE_API_KEY", err)
		}
		return err
	}
	if res := tts.CheckVoiceConfig(req.VoiceConfig()); !res.OK() {
		log.Warn("unknown voice settings", "warnings", res.Warnings)
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", strings.Join(res.Warnings, "; "))
		if res.Guidance != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Guidance)
		}
	}

	label := convertLabel(a.converter.EstimateCostLabel(ctx, text, req.VoiceConfig()))

	var result audio.Artifact
	err = ui.RunProgress(ctx, uiConfig, label, func(ctx context.Context, onProgress tts.ProgressFunc) error {
		var err error
		result, err = a.converter.Convert(ctx, req, onProgress)
		return err
	})
	if err != nil {
		return withResumeHint(err)
	}

	out := utils.ExpandPath(outputPath)
	if err := audio.WriteFile(out, result); err != nil {
		return err
	}

	if err := cache.SaveCredential(ctx, a.backend, req.Credential); err != nil {
		log.Warn("could not save credential", "err", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: could not save API key:", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n%s\n", out,
		humanize.Bytes(uint64(result.Size())), //nolint:gosec
		convertLabel(a.converter.EstimateCostLabel(ctx, text, req.VoiceConfig())))
	return nil
}

func main() {
	var err error
	uiConfig, err = env.ParseAs[ui.Config]()
	if err != nil {
		fmt.Println("error parsing config:", err)
		os.Exit(1)
	}

	closer, err := setupLog(uiConfig)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringP("voice", "v", tts.DefaultVoice, "voice to speak with (see narrate voices)")
	rootCmd.PersistentFlags().StringP("model", "m", tts.DefaultModel, "speech model")
	rootCmd.PersistentFlags().Bool("markdown", false, "reduce markdown input to plain text")
	rootCmd.PersistentFlags().BoolVar(&fromClipboard, "clipboard", false, "read the text from the clipboard")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "speech.mp3", "where to write the MP3")
	rootCmd.Flags().String("api-key", "", "API key (saved after a successful conversion)")

	// Config bindings
	_ = viper.BindPFlag("speech.voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("speech.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("input.markdown", rootCmd.PersistentFlags().Lookup("markdown"))
	_ = viper.BindPFlag("api_key", rootCmd.Flags().Lookup("api-key"))

	setDefaults()

	rootCmd.AddCommand(configCmd, manCmd, estimateCmd, voicesCmd, cacheCmd)
}

// loadConfigFlag reads the file given by --config on top of the defaults.
func loadConfigFlag() error {
	viper.SetConfigFile(utils.ExpandPath(configFile))
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	return nil
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "narrate")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "narrate")}, dirs...)
	}

	if c := os.Getenv("NARRATE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("narrate")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("narrate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "narrate.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
