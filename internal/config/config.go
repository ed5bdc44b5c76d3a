package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	SupercellToken   string
	SupercellBaseURL string
	DBPath           string
	RedisURL         string
	ServerPort       string
	LogLevel         string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		SupercellToken:   getEnv("SUPERCELL_API_TOKEN", ""),
		SupercellBaseURL: getEnv("SUPERCELL_API_BASE_URL", "https://api.clashroyale.com/v1"),
		DBPath:           getEnv("DB_PATH", "decktracker.db"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if cfg.SupercellToken == "" {
		return nil, fmt.Errorf("SUPERCELL_API_TOKEN is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("redis_url", cfg.RedisURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
