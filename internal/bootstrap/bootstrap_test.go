package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/erazemk/ambulanta/internal/auth"
	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

func TestInitAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ambulanta.sqlite3")

	password, err := Init(ctx, path, "Captain")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(password) != 16 {
		t.Errorf("password length = %d, want 16", len(password))
	}

	if _, err := Init(ctx, path, "Captain"); !errors.Is(err, ErrExists) {
		t.Errorf("second Init error = %v, want ErrExists", err)
	}

	database, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	user, err := store.GetUserByUsername(ctx, database, "Captain")
	if err != nil || user == nil {
		t.Fatalf("GetUserByUsername: %v, %v", user, err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		t.Errorf("generated password does not match: %v", err)
	}

	last, err := store.GetSetting(ctx, database, store.SettingLastRecompute)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if last == "" {
		t.Error("Open did not record a recompute")
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(24)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	b, _ := GeneratePassword(24)
	if len(a) != 24 || a == b {
		t.Errorf("passwords %q and %q", a, b)
	}
}
