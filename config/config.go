package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/adamspd/FlashMind/models"
)

// Config holds all the configuration for the API server
type Config struct {
	Port          string        `env:"PORT" envDefault:"8000"`
	DBPath        string        `env:"DB_PATH" envDefault:"./flashmind.db"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"72h"`
	AIAPIKey      string        `env:"AI_API_KEY"`
	AIBaseURL     string        `env:"AI_BASE_URL"`
	AIModel       string        `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	AITimeout     time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	MaxTextLength int           `env:"MAX_TEXT_LENGTH" envDefault:"3000"`
	RedisURL      string        `env:"REDIS_URL"`
	Email         EmailEnv
}

// EmailEnv holds the SMTP variables before they become a models.EmailConfig
type EmailEnv struct {
	SMTPHost    string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort    int    `env:"SMTP_PORT" envDefault:"465"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	FromAddress string `env:"FROM_EMAIL" envDefault:"noreply@flashmind.local"`
	FromName    string `env:"FROM_NAME" envDefault:"FlashMind AI"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8000"`
}

// LoadDotEnv reads variables from the given files into the environment.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MaxTextLength <= 0 {
		return errors.New("MAX_TEXT_LENGTH must be positive")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// AIEnabled reports whether a generation provider is configured
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

// QueueEnabled reports whether the Redis-backed job queue is configured
func (c *Config) QueueEnabled() bool {
	return c.RedisURL != ""
}

func (c *Config) EmailConfig() *models.EmailConfig {
	return &models.EmailConfig{
		SMTPHost:    c.Email.SMTPHost,
		SMTPPort:    c.Email.SMTPPort,
		Username:    c.Email.Username,
		Password:    c.Email.Password,
		FromAddress: c.Email.FromAddress,
		FromName:    c.Email.FromName,
		BaseURL:     c.Email.BaseURL,
	}
}
