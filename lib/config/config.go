package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	TMDB     TMDBConfig
	Seed     SeedConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string
	URL    string
}

type AuthConfig struct {
	Secret     string
	Expiration time.Duration
}

type TMDBConfig struct {
	APIKey  string
	BaseURL string
}

type SeedConfig struct {
	MaxShows    int
	MaxEpisodes int
	LockDir     string
}

// Load reads an optional .env file from the working directory and then
// builds the config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	expiration, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}

	maxShows, err := getEnvAsInt("SEED_MAX_SHOWS", 15)
	if err != nil {
		return nil, err
	}
	maxEpisodes, err := getEnvAsInt("SEED_MAX_EPISODES", 10)
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:   getEnv("DB_PATH", "benflix.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: expiration,
		},
		TMDB: TMDBConfig{
			APIKey:  getEnv("TMDB_API_KEY", ""),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
		Seed: SeedConfig{
			MaxShows:    maxShows,
			MaxEpisodes: maxEpisodes,
			LockDir:     getEnv("LOCK_DIR", ""),
		},
		LogLevel: level,
	}

	switch cfg.Database.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.Database.Driver)
	}

	return cfg, nil
}

// ValidateServe checks the settings the API server cannot run without.
func (c *Config) ValidateServe() error {
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.Expiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}
	return nil
}

// ValidateSeed checks the settings the seeding job cannot run without.
func (c *Config) ValidateSeed() error {
	if c.TMDB.APIKey == "" {
		return errors.New("TMDB_API_KEY is required")
	}
	if c.Seed.MaxShows < 1 || c.Seed.MaxEpisodes < 1 {
		return errors.New("SEED_MAX_SHOWS and SEED_MAX_EPISODES must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, value)
	}
	return intVal, nil
}
