package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "ambulanta.sqlite3" || cfg.Addr != ":8080" || cfg.BackupKeepDays != 7 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RecomputeCron != "59 23 * * *" {
		t.Errorf("recompute cron = %q", cfg.RecomputeCron)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "AMBULANTA_DB=/var/lib/ambulanta/ship.sqlite3\nAMBULANTA_BACKUP_KEEP_DAYS=14\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AMBULANTA_ADDR", "127.0.0.1:9000")
	// godotenv does not override variables that are already set.
	t.Setenv("AMBULANTA_DB", "")
	os.Unsetenv("AMBULANTA_DB")
	t.Setenv("AMBULANTA_BACKUP_KEEP_DAYS", "")
	os.Unsetenv("AMBULANTA_BACKUP_KEEP_DAYS")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/var/lib/ambulanta/ship.sqlite3" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.BackupKeepDays != 14 {
		t.Errorf("BackupKeepDays = %d", cfg.BackupKeepDays)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
}

func TestLoadInvalidNumber(t *testing.T) {
	t.Setenv("AMBULANTA_BACKUP_KEEP_DAYS", "a week")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for non-numeric keep days")
	}
}
