// Command server is the entry point: it reads configuration from the
// environment, builds the logger and starts the HTTP server. All logic
// lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/vidstream/internal/auth"
	"github.com/sakif/vidstream/internal/media"
	"github.com/sakif/vidstream/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := loadConfig()

	// Create the database directory if needed (like `mkdir -p`).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig assembles server.Config from the environment.
//
// Required: ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET (distinct, ≥16 chars;
// generate with `openssl rand -hex 32`), S3_BUCKET, S3_PUBLIC_BASE_URL.
// Everything else has a default. Secret and lifetime validation happens in
// server.New, which fails fast on bad values.
func loadConfig() server.Config {
	return server.Config{
		Port:               envInt("PORT", 8080),
		DBPath:             envString("DB_PATH", "data/vidstream.db"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTokenTTL:     envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshTokenTTL:    envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:         envInt("BCRYPT_COST", auth.DefaultCost),
		Media: media.S3Config{
			Region:          envString("S3_REGION", "us-east-1"),
			Bucket:          os.Getenv("S3_BUCKET"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("S3_ENDPOINT"), // empty for AWS, set for MinIO-style hosts
			PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
