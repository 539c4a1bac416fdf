package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/powerctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel    = "info"
	defaultInterval    = 1
	defaultIntentBuf   = 32
	defaultUpdateBuf   = 64
	defaultHistoryPath = "/var/lib/powerctl/history.db"

	configName = "powerctl"
	configType = "toml"
	envPrefix  = "POWERCTL"
)

type Config struct {
	// Interval between update polls in seconds
	Interval int `mapstructure:"interval"`
	// Monitor keeps the process attached, logging state transitions
	Monitor bool `mapstructure:"monitor"`
	// Debug enables debug logging
	Debug bool `mapstructure:"debug"`
	// Verbose enables info logging
	Verbose bool `mapstructure:"verbose"`
	// LogLevel is the configured logging level
	LogLevel string `mapstructure:"log_level"`

	// IntentBuffer is the actor intent channel capacity
	IntentBuffer int `mapstructure:"intent_buffer"`
	// UpdateBuffer is the broadcast ring capacity
	UpdateBuffer int `mapstructure:"update_buffer"`

	// History enables the sqlite transition journal
	History bool `mapstructure:"history"`
	// HistoryDB is the path to the journal database
	HistoryDB string `mapstructure:"history_db"`

	// One-shot actions; empty/negative/false means not requested
	Profile     string `mapstructure:"profile"`
	ChargeLimit int    `mapstructure:"charge_limit"`
	Cycle       bool   `mapstructure:"cycle"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("intent_buffer", defaultIntentBuf)
	v.SetDefault("update_buffer", defaultUpdateBuf)
	v.SetDefault("history", false)
	v.SetDefault("history_db", defaultHistoryPath)
	v.SetDefault("charge_limit", -1)

	flags := pflag.NewFlagSet("powerctl", pflag.ContinueOnError)
	flags.Int("interval", defaultInterval, "Interval between update polls in seconds")
	flags.Bool("monitor", false, "Monitor mode: log state transitions until interrupted")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("history", false, "Record state transitions to the history database")
	flags.String("history-db", defaultHistoryPath, "Path to the history database")
	flags.String("profile", "", "Set power profile (quiet, balanced, performance)")
	flags.Int("charge-limit", -1, "Set battery charge limit (20-100)")
	flags.Bool("cycle", false, "Cycle to the next power profile")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if err := v.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := v.BindPFlag("history_db", flags.Lookup("history-db")); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := v.BindPFlag("charge_limit", flags.Lookup("charge-limit")); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	for _, name := range []string{"interval", "monitor", "debug", "verbose", "history", "profile", "cycle"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath("/etc")
		v.AddConfigPath("$HOME/.config/powerctl")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.Interval)
	}

	return nil
}
