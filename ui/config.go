package ui

// Config contains display settings read from the environment.
type Config struct {
	// Logging
	Debug   bool   `env:"NARRATE_DEBUG"`
	LogFile string `env:"NARRATE_LOG_FILE"`

	// Disables the animated progress bar even on a terminal
	NoProgress bool `env:"NARRATE_NO_PROGRESS"`

	// Progress bar width; 0 fits the terminal
	ProgressWidth int `env:"NARRATE_PROGRESS_WIDTH" envDefault:"0"`
}
