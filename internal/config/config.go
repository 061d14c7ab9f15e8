package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	JWTSigningKey string        `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string        `env:"JWT_ISSUER" default:"realtimechat"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" default:"120h"` // 5 days

	SentimentEndpoint string        `env:"SENTIMENT_ENDPOINT"`
	SentimentAPIKey   string        `env:"SENTIMENT_API_KEY"`
	SentimentTimeout  time.Duration `env:"SENTIMENT_TIMEOUT" default:"2s"`

	DefaultAvatarURL string `env:"DEFAULT_AVATAR_URL" default:"/images/default.png"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":    cfg.DatabaseURL,
		"JWT_SIGNING_KEY": cfg.JWTSigningKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSigningKey) < 32 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 characters, got %d", len(cfg.JWTSigningKey))
	}

	if cfg.SentimentTimeout <= 0 {
		return fmt.Errorf("SENTIMENT_TIMEOUT must be positive")
	}

	return nil
}
