package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	DB     DBConfig     `mapstructure:"db"`
	Report ReportConfig `mapstructure:"report"`
}

type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
}

type ReportConfig struct {
	WindowDays int `mapstructure:"window_days"`
}

// LoadConfig loads configuration from config.yaml and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.storefront/")
	v.AddConfigPath("/etc/storefront/")

	// Enable environment variable override with STOREFRONT_ prefix
	v.SetEnvPrefix("STOREFRONT")
	v.AutomaticEnv()

	v.SetDefault("db.dsn", "root:@tcp(127.0.0.1:3306)/storefront?parseTime=true")
	v.SetDefault("db.maxOpenConns", 4)
	v.SetDefault("report.window_days", 7)

	// A missing config file is fine; defaults and env variables cover it
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
