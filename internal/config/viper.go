// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"fjacquet/recurring-ledger/internal/fileutils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RECUR"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Server struct {
		Addr                   string `mapstructure:"addr" yaml:"addr"`
		ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
	} `mapstructure:"server" yaml:"server"`

	Recurring struct {
		MatchToleranceDays      int    `mapstructure:"match_tolerance_days" yaml:"match_tolerance_days"`
		LookbackMonths          int    `mapstructure:"lookback_months" yaml:"lookback_months"`
		LookaheadMonths         int    `mapstructure:"lookahead_months" yaml:"lookahead_months"`
		RequireMerchant         bool   `mapstructure:"require_merchant" yaml:"require_merchant"`
		RejectDuplicateApproval bool   `mapstructure:"reject_duplicate_approval" yaml:"reject_duplicate_approval"`
		DiscardMode             string `mapstructure:"discard_mode" yaml:"discard_mode"`
	} `mapstructure:"recurring" yaml:"recurring"`

	Output struct {
		CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	} `mapstructure:"output" yaml:"output"`
}

// Load builds the configuration from defaults, then the config file, then
// RECUR_* environment variables. An empty configFile searches
// $HOME/.recurring-ledger, .recurring-ledger and the working directory for
// config.yaml; a missing file is not an error there. An explicit configFile
// must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		if !fileutils.FileExists(configFile) {
			return nil, fmt.Errorf("config file not found: %s", configFile)
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.recurring-ledger")
		v.AddConfigPath(".recurring-ledger")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath, err := fileutils.ExpandHome(config.Database.Path)
	if err != nil {
		return nil, err
	}
	config.Database.Path = dbPath

	return &config, nil
}

// Default returns the configuration with every default applied and nothing
// read from files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Defaults always decode.
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "recurring.db")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout_seconds", 30)

	v.SetDefault("recurring.match_tolerance_days", 3)
	v.SetDefault("recurring.lookback_months", 12)
	v.SetDefault("recurring.lookahead_months", 3)
	v.SetDefault("recurring.require_merchant", false)
	v.SetDefault("recurring.reject_duplicate_approval", false)
	v.SetDefault("recurring.discard_mode", "skip")

	v.SetDefault("output.csv_delimiter", ",")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if config.Server.ShutdownTimeoutSeconds < 1 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be positive, got: %d", config.Server.ShutdownTimeoutSeconds)
	}

	r := config.Recurring
	if r.MatchToleranceDays < 0 || r.MatchToleranceDays > 31 {
		return fmt.Errorf("recurring.match_tolerance_days must be between 0 and 31, got: %d", r.MatchToleranceDays)
	}
	if r.LookbackMonths < 0 {
		return fmt.Errorf("recurring.lookback_months must not be negative, got: %d", r.LookbackMonths)
	}
	if r.LookaheadMonths < 0 {
		return fmt.Errorf("recurring.lookahead_months must not be negative, got: %d", r.LookaheadMonths)
	}
	if r.DiscardMode != "skip" && r.DiscardMode != "zero_transaction" {
		return fmt.Errorf("invalid recurring.discard_mode: %s (must be 'skip' or 'zero_transaction')", r.DiscardMode)
	}

	if len(config.Output.CSVDelimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.Output.CSVDelimiter)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
