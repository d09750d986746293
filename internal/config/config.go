// Package config reads service configuration from the environment, with
// an optional remote JSON overlay for values managed centrally.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	APIToken      string `env:"API_TOKEN,required"`
	BlobBaseURL   string `env:"BLOB_BASE_URL"`
	BlobToken     string `env:"BLOB_TOKEN"`
	RemoteCfgURL  string `env:"REMOTE_CONFIG_URL"`
	LLMGatewayURL string `env:"LLM_GATEWAY_URL"`
	LLMAPIKey     string `env:"LLM_API_KEY"`
	LLMModel      string `env:"LLM_MODEL"`
	UseMockLLM    bool   `env:"USE_MOCK_LLM" envDefault:"false"`

	ClassifyConcurrency int `env:"CLASSIFY_CONCURRENCY" envDefault:"10"`
	LockWaitSeconds     int `env:"LOCK_WAIT_SECONDS" envDefault:"10"`
	LockTTLSeconds      int `env:"LOCK_TTL_SECONDS" envDefault:"120"`
}

// Load reads .env if present, parses the environment and, when a remote
// config URL is set, overlays the remotely managed values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RemoteCfgURL != "" {
		applyRemote(cfg)
	}
	return cfg, nil
}

func (c *Config) LockWait() time.Duration {
	return time.Duration(c.LockWaitSeconds) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}
