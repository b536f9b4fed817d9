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
			return fmt.Errorf("unable to build manpage: %w", err)
		}

		page = page.WithSection("Configuration", "Settings are read from xtts-tts.yml in the user config directory, "+
			"then from XTTS_HOST, XTTS_PORT, XTTS_LANGUAGE, XTTS_SPEAKER_WAV and XTTS_ENDPOINT, then from flags.")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
		return err
	},
}
