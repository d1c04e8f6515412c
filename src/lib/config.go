package lib

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config represents the service configuration. Every field can be set in
// the YAML file and overridden by environment variables.
type Config struct {
	MongoURI      string `yaml:"mongo_uri"`
	Database      string `yaml:"database"`
	CachePath     string `yaml:"cache_path"`
	Port          string `yaml:"port"`
	JWTSecret     string `yaml:"jwt_secret"`
	ToastTTLSecs  int    `yaml:"toast_ttl_seconds"`
	SettleDelayMs int    `yaml:"settle_delay_ms"`
}

// LoadConfig reads the configuration file if present and applies
// environment overrides. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{
		MongoURI:      "mongodb://localhost:27017",
		Database:      "talentgrid",
		CachePath:     "./connect-cache.db",
		Port:          "3000",
		ToastTTLSecs:  4,
		SettleDelayMs: 1500,
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "fallback-secret-key"
	}

	return &cfg, nil
}

func (c *Config) ToastTTL() time.Duration {
	return time.Duration(c.ToastTTLSecs) * time.Second
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}
