package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName   = "config"
	configFormat = "yaml"
)

func ReadConfig(configPath string) (*Config, error) {
	viper.SetConfigName(configName)
	viper.SetConfigType(configFormat)
	viper.AddConfigPath(configPath)

	// Allow env vars to override config values.
	// e.g. PATIENTREG_DATABASE_HOST overrides database.host
	viper.SetEnvPrefix("PATIENTREG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read the config file (optional in Docker environments)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only fail if it's not a "file not found" error
			if os.Getenv("PATIENTREG_DATABASE_HOST") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "patient_registration")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("email.from", `"Light-it" <no-reply@lightit.com>`)
	viper.SetDefault("queue.name", "emails")
	viper.SetDefault("queue.max_attempts", 3)
	viper.SetDefault("queue.backoff_base_ms", 2000)
	viper.SetDefault("uploads.dir", "uploads/documents")
	viper.SetDefault("uploads.public_prefix", "/uploads/documents")
	viper.SetDefault("uploads.max_size_mb", 5)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("observability.service_name", "patientreg")
}
