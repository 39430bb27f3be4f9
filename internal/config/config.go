package config

import (
	"os"
	"strings"

	"github.com/navneet-indusworks/indus-daq-firmware/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultGPIOChip        = "gpiochip0"
	defaultOutputPin       = 18
	defaultRejectionPin    = 19
	defaultSupervisorSecs  = 1
	defaultTelemetrySecs   = 60
	defaultWatchdogSecs    = 30
	defaultMaxFailures     = 5
	defaultHTTPTimeoutSecs = 10
	defaultWarmupReads     = 10
	defaultStateLogDB      = "/var/lib/indus-daq/statelog.db"
	defaultSensorPath      = "/sys/bus/iio/devices/iio:device0/in_current0_input"
	defaultSensorScale     = 0.001 // sysfs reports milliamps
)

// Config holds the local agent settings. Signal enablement, signal types and
// the reporting frequency come from the remote device configuration, not from
// here; this file only carries identity, credentials and platform wiring.
type Config struct {
	Site      string `mapstructure:"site"`
	DeviceID  string `mapstructure:"device_id"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`

	GPIOChip     string `mapstructure:"gpio_chip"`
	OutputPin    int    `mapstructure:"output_pin"`
	RejectionPin int    `mapstructure:"rejection_pin"`

	SensorPath  string  `mapstructure:"sensor_path"`
	SensorScale float64 `mapstructure:"sensor_scale"`

	SupervisorInterval int `mapstructure:"supervisor_interval"`
	TelemetryInterval  int `mapstructure:"telemetry_interval"`
	WatchdogTimeout    int `mapstructure:"watchdog_timeout"`
	MaxFailures        int `mapstructure:"max_failures"`
	HTTPTimeout        int `mapstructure:"http_timeout"`
	WarmupReads        int `mapstructure:"warmup_reads"`

	StateLogDB string `mapstructure:"statelog_db"`

	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	config := &Config{}

	viper.Reset()

	flags := pflag.NewFlagSet("indus-daq", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("site", "", "Telemetry server hostname")
	flags.String("device-id", "", "Device identifier registered with the server")
	flags.String("gpio-chip", defaultGPIOChip, "GPIO character device name")
	flags.Int("output-pin", defaultOutputPin, "GPIO offset of the output signal")
	flags.Int("rejection-pin", defaultRejectionPin, "GPIO offset of the rejection signal")
	flags.Int("watchdog-timeout", defaultWatchdogSecs, "Watchdog timeout in seconds")
	flags.Int("max-failures", defaultMaxFailures, "Consecutive report failures before reset")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}

	setDefaults()

	// Load configuration from file
	viper.SetConfigName("indus-daq")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc")
	viper.AddConfigPath(".")
	if path := os.Getenv("INDUSDAQ_CONFIG"); path != "" {
		viper.SetConfigFile(path)
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(errors.ErrReadConfig, err)
		}
	}

	viper.SetEnvPrefix("INDUSDAQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Override config file values with command line flags
	flags.Visit(func(f *pflag.Flag) {
		viper.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	// Unmarshal the configuration
	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set log level based on config
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if config.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("gpio_chip", defaultGPIOChip)
	viper.SetDefault("output_pin", defaultOutputPin)
	viper.SetDefault("rejection_pin", defaultRejectionPin)
	viper.SetDefault("supervisor_interval", defaultSupervisorSecs)
	viper.SetDefault("telemetry_interval", defaultTelemetrySecs)
	viper.SetDefault("watchdog_timeout", defaultWatchdogSecs)
	viper.SetDefault("max_failures", defaultMaxFailures)
	viper.SetDefault("http_timeout", defaultHTTPTimeoutSecs)
	viper.SetDefault("warmup_reads", defaultWarmupReads)
	viper.SetDefault("statelog_db", defaultStateLogDB)
	viper.SetDefault("sensor_path", defaultSensorPath)
	viper.SetDefault("sensor_scale", defaultSensorScale)
}

// Validate reports the first missing or unusable setting. Identity and
// credentials have no defaults: the device cannot operate without them.
func (c *Config) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"site", c.Site},
		{"device_id", c.DeviceID},
		{"api_key", c.APIKey},
		{"api_secret", c.APISecret},
	} {
		if field.value == "" {
			return errors.WithData(errors.ErrMissingConfig, field.name)
		}
	}

	for _, field := range []struct {
		name  string
		value int
	}{
		{"supervisor_interval", c.SupervisorInterval},
		{"telemetry_interval", c.TelemetryInterval},
		{"watchdog_timeout", c.WatchdogTimeout},
		{"max_failures", c.MaxFailures},
		{"http_timeout", c.HTTPTimeout},
	} {
		if field.value <= 0 {
			return errors.WithData(errors.ErrInvalidConfig, field.name)
		}
	}

	return nil
}
