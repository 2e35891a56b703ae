// Package config reads settings from the environment and an optional .env
// file. Command-line flags override what is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string

	BackupDir      string
	BackupKeepDays int

	// Cron specs for the scheduled jobs. An empty spec disables the job.
	RecomputeCron string
	BackupCron    string

	// Default charset of CSV reports.
	ExportCharset string
}

// Load reads the given env files, or .env if none are given, and then the
// environment. Missing env files are not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	keep, err := getEnvInt("AMBULANTA_BACKUP_KEEP_DAYS", 7)
	if err != nil {
		return nil, err
	}

	return &Config{
		DBPath:         getEnv("AMBULANTA_DB", "ambulanta.sqlite3"),
		Addr:           getEnv("AMBULANTA_ADDR", ":8080"),
		AdminUser:      getEnv("AMBULANTA_ADMIN", "Admin"),
		LogPath:        getEnv("AMBULANTA_LOG", ""),
		BackupDir:      getEnv("AMBULANTA_BACKUP_DIR", "backups"),
		BackupKeepDays: keep,
		RecomputeCron:  getEnv("AMBULANTA_RECOMPUTE_CRON", "59 23 * * *"),
		BackupCron:     getEnv("AMBULANTA_BACKUP_CRON", "30 23 * * *"),
		ExportCharset:  getEnv("AMBULANTA_EXPORT_CHARSET", "utf-8"),
	}, nil
}

// getEnv gets an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		slog.Warn("invalid numeric setting", "key", key, "value", value)
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	return n, nil
}
