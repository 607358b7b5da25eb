package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the application configuration structure
type Config struct {
	Environment          string        `split_words:"true" default:"dev"`
	APIListenAddress     string        `split_words:"true" default:":8081"`
	APIAllowedOrigin     string        `split_words:"true" default:"*"`
	StoreCapacity        int           `split_words:"true" default:"16"`
	StoreLoadFactor      float64       `split_words:"true" default:"0.75"`
	AdminToken           string        `split_words:"true"`
	TokenCleanupInterval time.Duration `split_words:"true" default:"1m"`
	UsageFlushInterval   time.Duration `split_words:"true" default:"1m"`
}

// IsEnvProduction returns whether the environment is set to production mode
func (config *Config) IsEnvProduction() bool {
	env := strings.ToLower(config.Environment)
	return env == "prod" || env == "production"
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("kv", config); err != nil {
		return nil, err
	}
	return config, nil
}
