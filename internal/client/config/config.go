// Package config handles configuration for the client component.
package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds runtime settings for a sync client. ApplicationID and
// ApplicationSeed identify the consuming application and are normally baked
// into its distribution; PersonalSeed is the per-user secret.
type Config struct {
	BaseURL         string `env:"SYNC_BASE_URL" env-default:"http://localhost:8080"`
	ApplicationID   string `env:"SYNC_APPLICATION_ID" env-default:"syncapi-demo"`
	ApplicationSeed int64  `env:"SYNC_APPLICATION_SEED" env-default:"84370274"`
	PersonalSeed    string `env:"SYNC_PERSONAL_SEED"`
	CacheDSN        string `env:"SYNC_CACHE_DSN" env-default:"syncapi-cache.db"`
	UserName        string `env:"SYNC_USER_NAME" env-default:"user"`
	DeviceName      string `env:"SYNC_DEVICE_NAME" env-default:"device"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
