package main

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/xtts-tts/utils"
)

// logConfig is read from the environment before flags are parsed.
type logConfig struct {
	Level string `env:"XTTS_LOG_LEVEL" envDefault:"info"`
	File  string `env:"XTTS_LOG_FILE"`
}

func getLogFilePath(cfg logConfig) (string, error) {
	if cfg.File != "" {
		return utils.ExpandPath(cfg.File), nil
	}
	path, err := gap.NewScope(gap.User, appName).DataPath(appName + ".log")
	if err != nil {
		return "", fmt.Errorf("unable to find data directory: %w", err)
	}
	return path, nil
}

// setupLog points the default logger at the log file and returns a func
// closing it.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	cfg, err := env.ParseAs[logConfig]()
	if err != nil {
		return nil, fmt.Errorf("error parsing log config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid XTTS_LOG_LEVEL: %w", err)
	}

	logFile, err := getLogFilePath(cfg)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureParentDir(logFile); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetLevel(level)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
