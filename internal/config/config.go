package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"LedgerHawk"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgerhawk"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
		AuthSecret     string        `envconfig:"AUTH_SECRET"`
	}

	Inference struct {
		BaseURL    string        `envconfig:"INFERENCE_BASE_URL" default:"https://api.openai.com/v1"`
		Model      string        `envconfig:"INFERENCE_MODEL" default:"gpt-4o-mini"`
		APIKey     string        `envconfig:"INFERENCE_API_KEY"`
		Timeout    time.Duration `envconfig:"INFERENCE_TIMEOUT" default:"120s"`
		MaxRetries int           `envconfig:"INFERENCE_MAX_RETRIES" default:"0"`
	}

	Scan struct {
		BatchSize int    `envconfig:"SCAN_BATCH_SIZE" default:"50"`
		SeedPath  string `envconfig:"LEDGER_SEED_PATH"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
