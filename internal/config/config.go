// Package config loads magstripe settings from defaults, an optional YAML
// file and MAGSTRIPE_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/celskeggs/magstripe/stripe"
	"github.com/spf13/viper"
)

// Config represents the complete magstripe configuration
type Config struct {
	Format FormatConfig `mapstructure:"format"`
	Reader ReaderConfig `mapstructure:"reader"`
	GPIO   GPIOConfig   `mapstructure:"gpio"`
	Sim    SimConfig    `mapstructure:"sim"`
	Record RecordConfig `mapstructure:"record"`
}

// FormatConfig selects the stripe encoding
type FormatConfig struct {
	// Track is the ISO track number (1 = alphanumeric, 2 or 3 = numeric)
	Track int `mapstructure:"track"`
}

// ReaderConfig controls the read loop
type ReaderConfig struct {
	// Capacity is the size of the output buffer handed to each read
	Capacity int `mapstructure:"capacity"`
	// PollInterval is how often the card-present line is sampled
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// GPIOConfig names the lines the reader head is wired to
type GPIOConfig struct {
	Chip        string `mapstructure:"chip"`
	DataLine    int    `mapstructure:"data_line"`
	ClockLine   int    `mapstructure:"clock_line"`
	PresentLine int    `mapstructure:"present_line"`
}

// SimConfig shapes simulated swipes
type SimConfig struct {
	BitPeriod time.Duration `mapstructure:"bit_period"`
	Jitter    float64       `mapstructure:"jitter"`
	LeadBits  int           `mapstructure:"lead_bits"`
	TrailBits int           `mapstructure:"trail_bits"`
	// Seed drives the bit period jitter; zero picks a fresh seed each run
	Seed int64 `mapstructure:"seed"`
}

// RecordConfig controls capture recording
type RecordConfig struct {
	// Path is a CSV file that receives every raw capture; empty disables recording
	Path string `mapstructure:"path"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Format: FormatConfig{Track: 2},
		Reader: ReaderConfig{
			Capacity:     stripe.MaxChars,
			PollInterval: time.Millisecond,
		},
		GPIO: GPIOConfig{
			Chip:        "gpiochip0",
			DataLine:    2,
			ClockLine:   3,
			PresentLine: 4,
		},
		Sim: SimConfig{
			BitPeriod: 200 * time.Microsecond,
			Jitter:    0.2,
			LeadBits:  30,
			TrailBits: 30,
			Seed:      1,
		},
	}
}

// SetDefaults registers the defaults with viper
func SetDefaults() {
	defaults := Default()
	viper.SetDefault("format.track", defaults.Format.Track)
	viper.SetDefault("reader.capacity", defaults.Reader.Capacity)
	viper.SetDefault("reader.poll_interval", defaults.Reader.PollInterval)
	viper.SetDefault("gpio.chip", defaults.GPIO.Chip)
	viper.SetDefault("gpio.data_line", defaults.GPIO.DataLine)
	viper.SetDefault("gpio.clock_line", defaults.GPIO.ClockLine)
	viper.SetDefault("gpio.present_line", defaults.GPIO.PresentLine)
	viper.SetDefault("sim.bit_period", defaults.Sim.BitPeriod)
	viper.SetDefault("sim.jitter", defaults.Sim.Jitter)
	viper.SetDefault("sim.lead_bits", defaults.Sim.LeadBits)
	viper.SetDefault("sim.trail_bits", defaults.Sim.TrailBits)
	viper.SetDefault("sim.seed", defaults.Sim.Seed)
	viper.SetDefault("record.path", defaults.Record.Path)
}

// ConfigDir returns the directory searched for config.yaml
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "magstripe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "magstripe")
}

// Init wires viper to the config file (explicit path, or config.yaml in the
// usual places) and the environment. A missing file is not an error.
func Init(cfgFile string) error {
	SetDefaults()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("MAGSTRIPE")
	// MAGSTRIPE_GPIO_DATA_LINE for gpio.data_line
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Get unmarshals the current viper state and validates it
func Get() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a read
func (c *Config) Validate() error {
	if _, err := stripe.ForTrack(c.Format.Track); err != nil {
		return fmt.Errorf("format.track: %w", err)
	}
	if c.Reader.Capacity < 1 {
		return fmt.Errorf("reader.capacity must be positive, got %d", c.Reader.Capacity)
	}
	if c.Reader.PollInterval < 0 {
		return fmt.Errorf("reader.poll_interval must not be negative, got %v", c.Reader.PollInterval)
	}
	if c.Sim.BitPeriod <= 0 {
		return fmt.Errorf("sim.bit_period must be positive, got %v", c.Sim.BitPeriod)
	}
	if c.Sim.LeadBits < 0 || c.Sim.TrailBits < 0 {
		return fmt.Errorf("sim lead and trail bits must not be negative")
	}
	return nil
}

// StripeFormat returns the format for the configured track
func (c *Config) StripeFormat() *stripe.Format {
	f, err := stripe.ForTrack(c.Format.Track)
	if err != nil {
		panic("config was not validated")
	}
	return f
}
