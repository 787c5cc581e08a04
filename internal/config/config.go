// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/govad/internal/vad"
)

const (
	AppName       = "govad"
	ConfigType    = "yaml"
	DefaultConfig = `# govad configuration

# Audio input
device_index: -1        # -1 for default capture device (see 'govad devices')
sample_rate: 16000      # 8000, 16000, 32000 or 48000 Hz

# Detector
mode: quality           # quality, low_bitrate, aggressive, very_aggressive (or 0-3)
frame_ms: 20            # Frame duration: 10, 20 or 30 ms

# Segmentation
start_frames: 3         # Consecutive voice frames that open a segment
end_frames: 15          # Consecutive silent frames that close a segment

# Output
log_format: text        # text or json
debug: false            # Enable debug logging
`
)

// Settings holds all application configuration
type Settings struct {
	// Audio input
	DeviceIndex int `mapstructure:"device_index"`
	SampleRate  int `mapstructure:"sample_rate"`

	// Detector
	Mode    string `mapstructure:"mode"`
	FrameMs int    `mapstructure:"frame_ms"`

	// Segmentation
	StartFrames int `mapstructure:"start_frames"`
	EndFrames   int `mapstructure:"end_frames"`

	// Output
	LogFormat string `mapstructure:"log_format"`
	Debug     bool   `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/govad/
func Init() error {
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 16000)
	viper.SetDefault("mode", "quality")
	viper.SetDefault("frame_ms", 20)
	viper.SetDefault("start_frames", 3)
	viper.SetDefault("end_frames", 15)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("debug", false)

	viper.SetEnvPrefix(AppName)
	viper.AutomaticEnv()

	viper.SetConfigType(ConfigType)
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// .config.yaml first, then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device index, got %d", s.DeviceIndex))
	}
	if _, err := vad.ParseSampleRate(s.SampleRate); err != nil {
		errs = append(errs, fmt.Errorf("sample_rate: %w", err))
	}
	if _, err := vad.ParseMode(s.Mode); err != nil {
		errs = append(errs, fmt.Errorf("mode: %w", err))
	}
	if s.FrameMs != 10 && s.FrameMs != 20 && s.FrameMs != 30 {
		errs = append(errs, fmt.Errorf("frame_ms must be 10, 20 or 30, got %d", s.FrameMs))
	}
	if s.StartFrames < 1 || s.StartFrames > 100 {
		errs = append(errs, fmt.Errorf("start_frames must be between 1 and 100, got %d", s.StartFrames))
	}
	if s.EndFrames < 1 || s.EndFrames > 500 {
		errs = append(errs, fmt.Errorf("end_frames must be between 1 and 500, got %d", s.EndFrames))
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", s.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Rate returns the configured sample rate. Call after Validate.
func (s *Settings) Rate() vad.SampleRate {
	return vad.SampleRate(s.SampleRate)
}

// VADMode returns the configured detector mode, falling back to quality.
func (s *Settings) VADMode() vad.Mode {
	m, _ := vad.ParseMode(s.Mode)
	return m
}

// FrameLength returns samples per frame at the configured rate.
func (s *Settings) FrameLength() int {
	return vad.FrameLength(s.Rate(), s.FrameMs)
}

// FrameDuration returns the configured frame duration.
func (s *Settings) FrameDuration() time.Duration {
	return time.Duration(s.FrameMs) * time.Millisecond
}
