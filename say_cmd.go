package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/xtts-tts/internal/audio"
	"github.com/dgnsrekt/xtts-tts/platform"
	"github.com/dgnsrekt/xtts-tts/tts"
	"github.com/dgnsrekt/xtts-tts/tts/engines/xtts"
	"github.com/dgnsrekt/xtts-tts/utils"
)

var (
	outputPath string
	play       bool
	language   string

	// newPlayer is swapped out in tests.
	newPlayer = func() audio.Player { return audio.NewPlayer() }

	sayCmd = &cobra.Command{
		Use:   "say [TEXT]",
		Short: "Synthesize text and write or play the WAV",
		Long: paragraph(fmt.Sprintf("\n%s TEXT through the configured XTTS server. Without TEXT, it is read from stdin. "+
			"The WAV goes to --output, to the speakers with --play, or to stdout when stdout is not a terminal.", keyword("Speak"))),
		Example: paragraph("xtts-tts say \"hello world\" -o hello.wav\necho hello | xtts-tts say --play"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSay,
	}
)

func init() {
	sayCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the WAV to this file")
	sayCmd.Flags().BoolVarP(&play, "play", "p", false, "play the audio")
	sayCmd.Flags().StringVarP(&language, "language", "l", "", "language code (default from config)")

	sayCmd.Flags().String("host", "", "XTTS server host")
	sayCmd.Flags().Int("port", tts.DefaultPort, "XTTS server port")
	sayCmd.Flags().String("speaker-wav", "", "reference voice file on the server")
	sayCmd.Flags().String("endpoint", tts.EndpointTTSToAudio, "tts_to_audio or tts_stream")

	_ = viper.BindPFlag("xtts.host", sayCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("xtts.port", sayCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("xtts.speaker_wav", sayCmd.Flags().Lookup("speaker-wav"))
	_ = viper.BindPFlag("xtts.endpoint", sayCmd.Flags().Lookup("endpoint"))
}

func runSay(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	if outputPath == "" && !play && isTerminal(cmd.OutOrStdout()) {
		return errors.New("refusing to write audio to a terminal: use --output or --play")
	}

	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}

	wav, err := speak(cmd.Context(), cfg, text, language)
	if err != nil {
		return err
	}

	if play {
		p := newPlayer()
		defer func() { _ = p.Close() }()
		if err := p.PlayWAV(cmd.Context(), wav); err != nil {
			return fmt.Errorf("unable to play audio: %w", err)
		}
	}

	switch {
	case outputPath != "":
		file := utils.ExpandPath(outputPath)
		if err := writeAudio(file, wav); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", humanize.Bytes(uint64(len(wav))), file)
	case !play:
		if _, err := cmd.OutOrStdout().Write(wav); err != nil {
			return fmt.Errorf("unable to write audio: %w", err)
		}
	}
	return nil
}

// speak registers the XTTS platform on a fresh host and asks it for audio.
func speak(ctx context.Context, cfg tts.Config, text, language string) ([]byte, error) {
	host := platform.NewHost(log.Default())
	if err := host.Register(xtts.NewPlatform()); err != nil {
		return nil, err
	}
	if err := host.Setup(ctx, xtts.Domain, nil); err != nil {
		return nil, err
	}

	raw := cfg.ToMap()
	raw["platform"] = xtts.Domain
	if _, err := host.LoadEngine(ctx, raw, nil); err != nil {
		return nil, err
	}

	res, err := host.Speak(ctx, xtts.Domain, text, language, nil)
	if err != nil {
		if errors.Is(err, platform.ErrNoAudio) {
			return nil, fmt.Errorf("%w (see the log file for details)", err)
		}
		return nil, err
	}
	return res.Audio, nil
}

// readText takes the text from the argument, or from r when there is none.
func readText(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		text := strings.TrimSpace(args[0])
		if text == "" {
			return "", tts.ErrEmptyText
		}
		return text, nil
	}

	if isTerminal(r) {
		return "", errors.New("no text given: pass TEXT or pipe it on stdin")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", tts.ErrEmptyText
	}
	return text, nil
}

func writeAudio(file string, wav []byte) error {
	if err := utils.EnsureParentDir(file); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}
	if err := os.WriteFile(file, wav, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write audio: %w", err)
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec
}
