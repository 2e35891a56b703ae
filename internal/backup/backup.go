// Package backup writes, prunes, exports and imports whole-database
// snapshots.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/db"
)

const (
	filePrefix  = "ambulanta-"
	fileSuffix  = ".sqlite3"
	preImport   = "-preimport"
	stampLayout = "20060102-150405"
)

var now = time.Now

// Snapshot writes a transactionally consistent copy of the database to path.
// The file must not exist yet.
func Snapshot(ctx context.Context, database *sqlx.DB, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("snapshot target %s already exists", path)
	}
	if _, err := database.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Run writes a dated snapshot into dir and removes snapshots older than
// keepDays. A keepDays of zero keeps every snapshot.
func Run(ctx context.Context, database *sqlx.DB, dir string, keepDays int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	path := filepath.Join(dir, filePrefix+now().Format(stampLayout)+fileSuffix)
	if err := Snapshot(ctx, database, path); err != nil {
		return "", err
	}

	pruned, err := Prune(dir, keepDays)
	if err != nil {
		return path, err
	}
	slog.Info("backup written", "path", path, "pruned", pruned)
	return path, nil
}

// Prune removes snapshots in dir whose timestamp is more than keepDays old
// and returns how many were removed. Files not named like snapshots are
// left alone.
func Prune(dir string, keepDays int) (int, error) {
	if keepDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}

	cutoff := now().AddDate(0, 0, -keepDays)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		taken, ok := snapshotTime(e.Name())
		if !ok || !taken.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("removing old backup: %w", err)
		}
		removed++
	}
	return removed, nil
}

// snapshotTime parses the timestamp out of a snapshot file name.
func snapshotTime(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	stamp = strings.TrimSuffix(stamp, preImport)
	t, err := time.ParseInLocation(stampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Export streams a consistent snapshot of the database to w.
func Export(ctx context.Context, database *sqlx.DB, w io.Writer) error {
	tmp, err := os.MkdirTemp("", "ambulanta-export")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	path := filepath.Join(tmp, "export"+fileSuffix)
	if err := Snapshot(ctx, database, path); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("streaming snapshot: %w", err)
	}
	return nil
}

// ExportFileName is the suggested download name for an export taken now.
func ExportFileName() string {
	return filePrefix + now().Format(stampLayout) + fileSuffix
}

// openUpload validates an uploaded database file and brings its schema up
// to date.
func openUpload(path string) error {
	upload, err := db.Open(path)
	if err != nil {
		return err
	}
	defer upload.Close()

	var result string
	if err := upload.Get(&result, `PRAGMA integrity_check`); err != nil {
		return fmt.Errorf("checking upload: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("upload failed integrity check: %s", result)
	}

	var tables []string
	if err := upload.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('medicines', 'equipment', 'orders')`); err != nil {
		return fmt.Errorf("reading upload schema: %w", err)
	}
	if len(tables) != 3 {
		return fmt.Errorf("upload is not an inventory database")
	}

	if err := db.Migrate(upload); err != nil {
		return fmt.Errorf("upgrading upload schema: %w", err)
	}
	return nil
}

// Import replaces the contents of the database with an uploaded snapshot.
// A copy of the current contents is written to backupDir first; if the
// database fails its check after the import, that copy is restored. It
// returns the path of the pre-import copy.
func Import(ctx context.Context, database *sqlx.DB, r io.Reader, backupDir string) (string, error) {
	tmp, err := os.MkdirTemp("", "ambulanta-import")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	uploadPath := filepath.Join(tmp, "upload"+fileSuffix)
	f, err := os.Create(uploadPath)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("receiving upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}

	if err := openUpload(uploadPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	saved := filepath.Join(backupDir, filePrefix+now().Format(stampLayout)+preImport+fileSuffix)
	if err := Snapshot(ctx, database, saved); err != nil {
		return "", fmt.Errorf("saving pre-import copy: %w", err)
	}

	if err := copyFrom(ctx, database, uploadPath); err != nil {
		return saved, err
	}

	if err := check(ctx, database); err != nil {
		slog.Error("import left database inconsistent, restoring", "error", err, "backup", saved)
		if rerr := copyFrom(ctx, database, saved); rerr != nil {
			return saved, fmt.Errorf("import check failed (%v) and restore failed: %w", err, rerr)
		}
		return saved, fmt.Errorf("import check failed, previous contents restored: %w", err)
	}

	slog.Info("database imported", "backup", saved)
	return saved, nil
}

// liveOnly keeps rows of the running instance that an import must not
// replace. Tokens signed with the current secret stay valid.
var liveOnly = map[string]string{
	"settings": "key = 'jwt_secret'",
}

// copyFrom replaces every table of the database with the rows of the
// database file at src, in one transaction.
func copyFrom(ctx context.Context, database *sqlx.DB, src string) error {
	conn, err := database.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS src`, src); err != nil {
		return fmt.Errorf("attaching %s: %w", src, err)
	}
	defer conn.ExecContext(context.Background(), `DETACH DATABASE src`)

	// foreign_keys cannot change inside a transaction.
	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer conn.ExecContext(context.Background(), `PRAGMA foreign_keys = ON`)

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := len(db.Tables) - 1; i >= 0; i-- {
		t := db.Tables[i]
		query := `DELETE FROM main.` + t
		if keep, ok := liveOnly[t]; ok {
			query += ` WHERE NOT (` + keep + `)`
		}
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("clearing %s: %w", t, err)
		}
	}

	for _, t := range db.Tables {
		var cols []string
		if err := tx.SelectContext(ctx, &cols,
			`SELECT m.name FROM pragma_table_info(?, 'main') m
			 JOIN pragma_table_info(?, 'src') s ON s.name = m.name
			 ORDER BY m.cid`, t, t); err != nil {
			return fmt.Errorf("reading columns of %s: %w", t, err)
		}
		if len(cols) == 0 {
			continue
		}
		list := strings.Join(cols, ", ")
		query := `INSERT INTO main.` + t + ` (` + list + `) SELECT ` + list + ` FROM src.` + t
		if keep, ok := liveOnly[t]; ok {
			query += ` WHERE NOT (` + keep + `)`
		}
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("copying %s: %w", t, err)
		}
	}

	var violations int
	if err := tx.GetContext(ctx, &violations, `SELECT COUNT(*) FROM pragma_foreign_key_check`); err != nil {
		return fmt.Errorf("checking foreign keys: %w", err)
	}
	if violations > 0 {
		return fmt.Errorf("imported data has %d foreign key violations", violations)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

// check verifies the database after an import.
func check(ctx context.Context, database *sqlx.DB) error {
	var result string
	if err := database.GetContext(ctx, &result, `PRAGMA integrity_check`); err != nil {
		return fmt.Errorf("checking database: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}
