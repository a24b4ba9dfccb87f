package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# OpenAI-compatible speech endpoint
api:
  base_url: "https://api.openai.com/v1"
  # per-request timeout
  timeout: "2m"

speech:
  # tts-1, tts-1-hd or gpt-4o-mini-tts
  model: "tts-1"
  # see: narrate voices
  voice: "alloy"

# requests allowed per window
rate_limit:
  requests: 100
  window: "1m"
  # requests, index or token
  mode: "requests"

pricing:
  # dollars per million characters
  per_million: 15

input:
  # always reduce markdown to plain text (markdown files are reduced anyway)
  markdown: false

cache:
  # disk, memory, redis, nats or sqlite
  driver: "disk"
  # defaults to the user cache directory
  # dir: "~/.cache/narrate/audio"
  # disk cache size in MB
  max_size: 100
  # in-memory tier in front of the driver, in MB (0 disables it)
  memory_size: 16
  # zstd level for the disk cache (0 disables compression)
  compression_level: 3
  redis:
    addr: "localhost:6379"
    password: ""
    db: 0
    prefix: "narrate"
    # expire entries after this long, e.g. "720h" (0 keeps them)
    ttl: 0
  nats:
    url: "nats://127.0.0.1:4222"
    bucket: "narrate"
  sqlite:
    # defaults to narrate.db in the cache directory
    path: ""
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the narrate config file",
	Long:    paragraph(fmt.Sprintf("\n%s the narrate config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("narrate config\nnarrate config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Narrate", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
