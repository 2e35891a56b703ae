// Package bootstrap creates and opens the inventory database for the
// command-line entry points.
package bootstrap

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/big"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/auth"
	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// ErrExists is returned by Init when the database file is already there.
var ErrExists = errors.New("database already exists")

// Init creates a new database at path with the schema and an admin account
// and returns the generated admin password. The file is removed again if
// any step fails.
func Init(ctx context.Context, path, adminUsername string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	database, err := db.Open(path)
	if err != nil {
		return "", err
	}

	password, err := initDatabase(ctx, database, adminUsername)
	database.Close()
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return password, nil
}

func initDatabase(ctx context.Context, database *sqlx.DB, adminUsername string) (string, error) {
	if err := db.Migrate(database); err != nil {
		return "", fmt.Errorf("creating schema: %w", err)
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	if _, err := store.CreateUser(ctx, database, adminUsername, hash, model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

// Open opens an existing database, upgrades its schema and re-derives every
// item status so that the stored statuses match today's date.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	changed, err := store.RecomputeAll(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("recomputing statuses: %w", err)
	}
	slog.Info("database ready", "path", path, "statuses_changed", changed)
	return database, nil
}

// GeneratePassword creates a random password of the given length.
func GeneratePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// PrintInitResult prints the credentials of a freshly created database.
func PrintInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}
