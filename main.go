// Package main provides the entry point for the xtts-tts CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/xtts-tts/tts"
	"github.com/dgnsrekt/xtts-tts/utils"
)

const appName = "xtts-tts"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	debug             bool

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Speak text through an XTTS server",
		Long: paragraph(
			fmt.Sprintf("\nSend text to an %s API server and get a WAV back.", keyword("XTTS")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" {
		file := utils.ExpandPath(configFile)
		_, statErr := os.Stat(file)
		// the config command creates a missing file
		if cmd != configCmd || statErr == nil {
			viper.SetConfigFile(file)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("unable to read config file: %w", err)
			}
		}
	}

	if debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigFile))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	tts.SetDefaults()
	tts.BindEnv()

	rootCmd.AddCommand(sayCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("XTTS_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		defaultConfigFile = used
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], appName+".yml")
}
