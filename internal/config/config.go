package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines gate service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"GATE_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"GATE_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"GATE_REDIS_ADDR"`
		Password string `yaml:"password" env:"GATE_REDIS_PASSWORD"`
		TTL      int    `yaml:"ttlSeconds" env:"GATE_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret" env:"GATE_JWT_SECRET"`
		TokenTTL  int    `yaml:"tokenTTLMinutes" env:"GATE_TOKEN_TTL_MINUTES"`
	} `yaml:"auth"`
	Credential struct {
		Secret         string `yaml:"secret" env:"GATE_CREDENTIAL_SECRET"`
		ValiditySecond int    `yaml:"validitySeconds" env:"GATE_CREDENTIAL_VALIDITY_SECONDS"`
	} `yaml:"credential"`
	Scan struct {
		DebounceSeconds int `yaml:"debounceSeconds" env:"GATE_SCAN_DEBOUNCE_SECONDS"`
	} `yaml:"scan"`
}

// Load reads configuration via the shared loader and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400
	cfg.Auth.TokenTTL = 60
	cfg.Credential.ValiditySecond = 30
	cfg.Scan.DebounceSeconds = 3

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(cfg.Credential.Secret) == "" {
		return nil, errors.New("config: credential secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ActiveSessionTTL returns cache ttl as duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// TokenTTL returns JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTL <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.TokenTTL) * time.Minute
}

// CredentialValidity returns the scan payload validity window.
func (c *Config) CredentialValidity() time.Duration {
	if c.Credential.ValiditySecond <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Credential.ValiditySecond) * time.Second
}

// DebounceWindow returns the per-driver scan debounce interval.
func (c *Config) DebounceWindow() time.Duration {
	if c.Scan.DebounceSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Scan.DebounceSeconds) * time.Second
}
