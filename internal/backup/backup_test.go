package backup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/db"
)

func openFileDB(t *testing.T, name string) *sqlx.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return database
}

func setClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func medicineNames(t *testing.T, database *sqlx.DB) []string {
	t.Helper()
	var names []string
	if err := database.Select(&names, `SELECT name FROM medicines ORDER BY id`); err != nil {
		t.Fatalf("listing medicines: %v", err)
	}
	return names
}

func TestRunWritesDatedSnapshot(t *testing.T) {
	ctx := context.Background()
	database := openFileDB(t, "live.sqlite3")
	dir := t.TempDir()
	setClock(t, time.Date(2026, 3, 4, 23, 30, 0, 0, time.Local))

	if _, err := database.Exec(`INSERT INTO medicines (name) VALUES ('Aspirin')`); err != nil {
		t.Fatalf("inserting medicine: %v", err)
	}

	path, err := Run(ctx, database, dir, 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(path) != "ambulanta-20260304-233000.sqlite3" {
		t.Errorf("snapshot name = %q", filepath.Base(path))
	}

	copied, err := db.Open(path)
	if err != nil {
		t.Fatalf("opening snapshot: %v", err)
	}
	defer copied.Close()
	if names := medicineNames(t, copied); len(names) != 1 || names[0] != "Aspirin" {
		t.Errorf("snapshot medicines = %v", names)
	}

	if _, err := Run(ctx, database, dir, 7); err == nil {
		t.Error("expected error when snapshot file already exists")
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	setClock(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local))

	files := map[string]bool{
		"ambulanta-20260301-233000.sqlite3":           false,
		"ambulanta-20260302-233000-preimport.sqlite3": false,
		"ambulanta-20260305-233000.sqlite3":           true,
		"ambulanta-20260310-000000.sqlite3":           true,
		"notes.txt":                                   true,
		"ambulanta-latest.sqlite3":                    true,
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	removed, err := Prune(dir, 7)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	for name, kept := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != kept {
			t.Errorf("%s: exists = %v, want %v", name, exists, kept)
		}
	}
}

func TestPruneKeepsEverythingWithZeroRetention(t *testing.T) {
	dir := t.TempDir()
	setClock(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local))

	old := filepath.Join(dir, "ambulanta-20200101-000000.sqlite3")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	removed, err := Prune(dir, 0)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(old); err != nil {
		t.Errorf("old snapshot removed: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	setClock(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local))

	source := openFileDB(t, "source.sqlite3")
	if _, err := source.Exec(`INSERT INTO medicine_categories (id, name) VALUES (1, 'Analgesics')`); err != nil {
		t.Fatalf("inserting category: %v", err)
	}
	if _, err := source.Exec(`INSERT INTO medicines (name, category_id, initial_quantity) VALUES ('Ibuprofen', 1, 20)`); err != nil {
		t.Fatalf("inserting medicine: %v", err)
	}
	if _, err := source.Exec(`INSERT INTO settings (key, value) VALUES ('jwt_secret', 'source-secret')`); err != nil {
		t.Fatalf("inserting setting: %v", err)
	}

	var exported bytes.Buffer
	if err := Export(ctx, source, &exported); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(exported.Bytes(), []byte("SQLite format 3")) {
		t.Fatal("export is not a SQLite file")
	}

	target := openFileDB(t, "target.sqlite3")
	if _, err := target.Exec(`INSERT INTO medicines (name) VALUES ('Paracetamol')`); err != nil {
		t.Fatalf("inserting medicine: %v", err)
	}
	if _, err := target.Exec(`INSERT INTO settings (key, value) VALUES ('jwt_secret', 'target-secret')`); err != nil {
		t.Fatalf("inserting setting: %v", err)
	}

	backupDir := t.TempDir()
	saved, err := Import(ctx, target, &exported, backupDir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !strings.HasSuffix(saved, "-preimport.sqlite3") {
		t.Errorf("pre-import copy = %q", saved)
	}

	if names := medicineNames(t, target); len(names) != 1 || names[0] != "Ibuprofen" {
		t.Errorf("medicines after import = %v, want [Ibuprofen]", names)
	}

	var secret string
	if err := target.Get(&secret, `SELECT value FROM settings WHERE key = 'jwt_secret'`); err != nil {
		t.Fatalf("reading secret: %v", err)
	}
	if secret != "target-secret" {
		t.Errorf("jwt secret = %q, want the running instance's", secret)
	}

	previous, err := db.Open(saved)
	if err != nil {
		t.Fatalf("opening pre-import copy: %v", err)
	}
	defer previous.Close()
	if names := medicineNames(t, previous); len(names) != 1 || names[0] != "Paracetamol" {
		t.Errorf("pre-import copy medicines = %v, want [Paracetamol]", names)
	}
}

func TestImportRejectsInvalidUpload(t *testing.T) {
	ctx := context.Background()
	target := openFileDB(t, "target.sqlite3")
	if _, err := target.Exec(`INSERT INTO medicines (name) VALUES ('Paracetamol')`); err != nil {
		t.Fatalf("inserting medicine: %v", err)
	}

	backupDir := t.TempDir()
	if _, err := Import(ctx, target, strings.NewReader("definitely not a database"), backupDir); err == nil {
		t.Fatal("expected error for garbage upload")
	}

	other := openFileDB(t, "other.sqlite3")
	if _, err := other.Exec(`DROP TABLE orders`); err != nil {
		t.Fatalf("dropping table: %v", err)
	}
	var foreign bytes.Buffer
	if err := Export(ctx, other, &foreign); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := Import(ctx, target, &foreign, backupDir); err == nil {
		t.Fatal("expected error for upload without inventory tables")
	}

	if names := medicineNames(t, target); len(names) != 1 || names[0] != "Paracetamol" {
		t.Errorf("medicines after rejected import = %v", names)
	}
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("reading backup dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected import left %d files in backup dir", len(entries))
	}
}
