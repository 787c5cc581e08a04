// cmd/root.go
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/govad/internal/config"
)

var (
	settings *config.Settings
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "govad",
	Short: "Voice activity detection for 16-bit PCM audio",
	Long: `govad classifies 10, 20 or 30 ms frames of 8, 16, 32 or 48 kHz mono audio
as speech or non-speech and groups them into speech segments.

Audio comes from a capture device (listen) or a WAV file (scan).`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags (override config file)
	flags := rootCmd.PersistentFlags()
	flags.IntP("device", "d", -1, "audio device index (-1 for default)")
	flags.IntP("sample-rate", "r", 16000, "sample rate in Hz (8000, 16000, 32000, 48000)")
	flags.StringP("mode", "m", "quality", "detector mode: quality, low_bitrate, aggressive, very_aggressive")
	flags.IntP("frame-ms", "F", 20, "frame duration in ms (10, 20, 30)")
	flags.BoolP("debug", "D", false, "enable debug output")

	rootCmd.AddCommand(listenCmd, scanCmd, devicesCmd, ratesCmd)
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"device":      "device_index",
	"sample-rate": "sample_rate",
	"mode":        "mode",
	"frame-ms":    "frame_ms",
	"debug":       "debug",
}

func bindFlags(cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if err := viper.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// loadSettings reads the config file, applies flags and builds the logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	s, err := config.Get()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	settings = s
	logger = s.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger.Debug("settings loaded",
		"config_file", viper.ConfigFileUsed(),
		"sample_rate", s.SampleRate,
		"mode", s.VADMode().String(),
		"frame_ms", s.FrameMs)
	return nil
}
