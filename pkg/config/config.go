// Package config loads runtime settings from the environment. A local .env
// file is read first and never overrides variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime settings for the server and the command line tools.
type Config struct {
	HTTPAddr      string   `env:"HTTP_ADDR" envDefault:":8081"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	AdminPassword string   `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	Database Database
	Auth     Auth
	Storage  Storage
	Pages    Pages
	Log      Log
}

type Database struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	DSN             string        `env:"DB_DSN"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

type Auth struct {
	// JWTSecret falls back to a development value; always override it in production.
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"dev-insecure-secret-change"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
}

type Storage struct {
	Backend           string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadBase        string `env:"UPLOAD_BASE" envDefault:"uploads"`
	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`
	MaxImageDimension int    `env:"MAX_IMAGE_DIMENSION" envDefault:"2048"`
	MaxImagePixels    int64  `env:"MAX_IMAGE_PIXELS" envDefault:"40000000"`

	S3Bucket       string `env:"S3_BUCKET" envDefault:"relics"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
}

// Pages configures list page sizes per entity.
type Pages struct {
	States    int `env:"PAGE_SIZE_STATES" envDefault:"50"`
	Cities    int `env:"PAGE_SIZE_CITIES" envDefault:"50"`
	Addresses int `env:"PAGE_SIZE_ADDRESSES" envDefault:"20"`
	Clients   int `env:"PAGE_SIZE_CLIENTS" envDefault:"10"`
	Relics    int `env:"PAGE_SIZE_RELICS" envDefault:"12"`
	Adoptions int `env:"PAGE_SIZE_ADOPTIONS" envDefault:"20"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads ./.env when present and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (postgres or sqlite)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("DB_DSN is not set")
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (local or s3)", c.Storage.Backend)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
