package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/xtts-tts/utils"
)

const defaultConfig = `# log at debug level
debug: false

# XTTS API server
xtts:
  # server host name or address (required)
  host: ""
  # server port
  port: 8020
  # language code; only "en" is supported
  language: "en"
  # reference voice file, as the server knows it (required)
  speaker_wav: ""
  # tts_to_audio (JSON POST) or tts_stream (legacy GET)
  endpoint: "tts_to_audio"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the xtts-tts config file",
	Long:    paragraph(fmt.Sprintf("\n%s the xtts-tts config file. We'll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("xtts-tts config\nxtts-tts config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file := configPath()
		if err := ensureConfigFile(file); err != nil {
			return err
		}

		c, err := editor.Cmd("xtts-tts", file)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", file)
		return nil
	},
}

// configPath is the file named by --config, or the discovered default.
func configPath() string {
	if configFile != "" {
		return utils.ExpandPath(configFile)
	}
	return defaultConfigFile
}

func ensureConfigFile(file string) error {
	if file == "" {
		return errors.New("no configuration file location")
	}

	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := utils.EnsureParentDir(file); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(file)
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
