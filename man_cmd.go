package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		page = page.WithSection("Environment", "NARRATE_API_KEY or OPENAI_API_KEY supply the API key.\n"+
			"NARRATE_CONFIG_HOME overrides the config directory.\n"+
			"NARRATE_DEBUG=1 enables debug logging to NARRATE_LOG_FILE.")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
		return err
	},
}
