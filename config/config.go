// Package config loads the toolkit configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all alphalink configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Stream    StreamConfig    `yaml:"stream"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Recording RecordingConfig `yaml:"recording"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies and configures the earbud.
type DeviceConfig struct {
	// Address is the BLE address or platform device UUID.
	Address string `yaml:"address"`

	// LEDSleep turns the device LED off while recording.
	LEDSleep bool `yaml:"led_sleep"`

	// NotchHz selects the on-device mains notch filter, 50 or 60.
	NotchHz int `yaml:"notch_hz"`
}

// StreamConfig describes the sample stream.
type StreamConfig struct {
	Name          string  `yaml:"name"`
	Channels      int     `yaml:"channels"`
	SampleRate    float64 `yaml:"sample_rate"`
	WindowSeconds float64 `yaml:"window_seconds"`
}

// FeedbackConfig configures the neurofeedback loop.
type FeedbackConfig struct {
	// Interval is the polling cadence, e.g. "250ms".
	Interval string `yaml:"interval"`

	// BandLowHz and BandHighHz bound the scored band.
	BandLowHz  float64 `yaml:"band_low_hz"`
	BandHighHz float64 `yaml:"band_high_hz"`

	// FilterLowHz and FilterHighHz bound the band-pass filter applied to
	// the raw window before scoring.
	FilterLowHz  float64 `yaml:"filter_low_hz"`
	FilterHighHz float64 `yaml:"filter_high_hz"`

	// CropSeconds is how much of the window tail is scored.
	CropSeconds float64 `yaml:"crop_seconds"`

	// BaselineWindows is the number of reference scores captured before
	// feedback starts.
	BaselineWindows int `yaml:"baseline_windows"`

	OSC OSCConfig `yaml:"osc"`
}

// OSCConfig is the feedback emission target.
type OSCConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// CloudConfig configures the ingestion websocket client.
type CloudConfig struct {
	URL         string `yaml:"url"`
	PingTimeout string `yaml:"ping_timeout"`
	RetryDelay  string `yaml:"retry_delay"`
}

// RecordingConfig configures local recording storage.
type RecordingConfig struct {
	DatabasePath string `yaml:"database_path"`
	OutputDir    string `yaml:"output_dir"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			NotchHz: 50,
		},
		Stream: StreamConfig{
			Name:          "alphalink",
			Channels:      2,
			SampleRate:    250,
			WindowSeconds: 10,
		},
		Feedback: FeedbackConfig{
			Interval:        "250ms",
			BandLowHz:       8,
			BandHighHz:      12,
			FilterLowHz:     1,
			FilterHighHz:    35,
			CropSeconds:     1,
			BaselineWindows: 40,
			OSC: OSCConfig{
				Host:    "127.0.0.1",
				Port:    5005,
				Address: "/in/alpha",
			},
		},
		Cloud: CloudConfig{
			URL:         "wss://f1bfprt7h1.execute-api.eu-central-1.amazonaws.com/v1",
			PingTimeout: "10s",
			RetryDelay:  "5s",
		},
		Recording: RecordingConfig{
			DatabasePath: "alphalink.db",
			OutputDir:    ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Stream.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %v", c.Stream.SampleRate)
	}

	if c.Stream.Channels <= 0 {
		return fmt.Errorf("config: channels must be positive, got %d", c.Stream.Channels)
	}

	if c.Feedback.BandLowHz >= c.Feedback.BandHighHz {
		return fmt.Errorf("config: band %v..%v Hz is empty", c.Feedback.BandLowHz, c.Feedback.BandHighHz)
	}

	if c.Feedback.BaselineWindows <= 0 {
		return fmt.Errorf("config: baseline_windows must be positive, got %d", c.Feedback.BaselineWindows)
	}

	if c.Feedback.OSC.Port <= 0 || c.Feedback.OSC.Port > 65535 {
		return fmt.Errorf("config: osc port must be in 1..65535, got %d", c.Feedback.OSC.Port)
	}

	if c.Device.NotchHz != 50 && c.Device.NotchHz != 60 {
		return fmt.Errorf("config: notch_hz must be 50 or 60, got %d", c.Device.NotchHz)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("ALPHALINK_DEVICE_ADDRESS"); addr != "" {
		c.Device.Address = addr
	}

	if url := os.Getenv("ALPHALINK_CLOUD_URL"); url != "" {
		c.Cloud.URL = url
	}

	if path := os.Getenv("ALPHALINK_DB"); path != "" {
		c.Recording.DatabasePath = path
	}

	if host := os.Getenv("ALPHALINK_OSC_HOST"); host != "" {
		c.Feedback.OSC.Host = host
	}

	if port := os.Getenv("ALPHALINK_OSC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Feedback.OSC.Port = p
		}
	}

	if level := os.Getenv("ALPHALINK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// FeedbackInterval returns the loop cadence as a duration.
func (c *Config) FeedbackInterval() time.Duration {
	d, err := time.ParseDuration(c.Feedback.Interval)
	if err != nil {
		return 250 * time.Millisecond
	}

	return d
}

// CloudPingTimeout returns the ping timeout as a duration.
func (c *Config) CloudPingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Cloud.PingTimeout)
	if err != nil {
		return 10 * time.Second
	}

	return d
}

// CloudRetryDelay returns the reconnect delay as a duration.
func (c *Config) CloudRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.Cloud.RetryDelay)
	if err != nil {
		return 5 * time.Second
	}

	return d
}
