package foodrecipe

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"

	devJWTSecret = "dev-secret-change-me"

	minBcryptCost = 10
)

// Config holds all application configuration.
type Config struct {
	Env      string   `env:"APP_ENV" envDefault:"production"`
	Port     string   `env:"PORT" envDefault:"3300"`
	LogLevel string   `env:"LOG_LEVEL" envDefault:"info"`
	CORS     []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	Auth    AuthConfig
	DB      DBConfig
	Uploads UploadConfig
}

// AuthConfig contains token and admin settings.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	// TokenTTL of zero issues tokens without an exp claim.
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	AdminKey      string        `env:"ADMIN_KEY"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"igor"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`
}

// DBConfig contains database settings.
type DBConfig struct {
	Driver       string        `env:"DB_DRIVER" envDefault:"sqlite"`
	URL          string        `env:"DATABASE_URL" envDefault:"recipes.db"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"5"`
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"3s"`
}

// UploadConfig contains image upload settings.
type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && cfg.Env == EnvDevelopment {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewConfig is the fx provider for Config.
func NewConfig() (*Config, error) {
	return LoadConfig()
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set; required outside %s", EnvDevelopment)
	}
	if c.Auth.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME must not be empty")
	}
	if c.Auth.BcryptCost < minBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d, got %d", minBcryptCost, c.Auth.BcryptCost)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative")
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DB.MaxOpenConns)
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Env: %s, Port: %s, DB: %s (max %d conns), Uploads: %s, Admin: %s, TokenTTL: %s, Auth: *** (masked) ***}",
		c.Env, c.Port, c.DB.Driver, c.DB.MaxOpenConns, c.Uploads.Dir, c.Auth.AdminUsername, c.Auth.TokenTTL,
	)
}
