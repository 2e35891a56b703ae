package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/erazemk/ambulanta/internal/backup"
	"github.com/erazemk/ambulanta/internal/bootstrap"
	"github.com/erazemk/ambulanta/internal/config"
	"github.com/erazemk/ambulanta/internal/store"
)

const usage = "Usage: ambulantactl <init|recompute|backup|export|import> [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		err = cmdInit(cfg, os.Args[2:])
	case "recompute":
		err = cmdRecompute(cfg, os.Args[2:])
	case "backup":
		err = cmdBackup(cfg, os.Args[2:])
	case "export":
		err = cmdExport(cfg, os.Args[2:])
	case "import":
		err = cmdImport(cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdInit(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	admin := fs.String("user", cfg.AdminUser, "admin username")
	fs.Parse(args)

	password, err := bootstrap.Init(context.Background(), *dbPath, *admin)
	if err != nil {
		return err
	}
	bootstrap.PrintInitResult(*dbPath, *admin, password)
	return nil
}

func cmdRecompute(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("recompute", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	fs.Parse(args)

	// Open already runs a full recompute.
	database, err := bootstrap.Open(context.Background(), *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	last, err := store.GetSetting(context.Background(), database, store.SettingLastRecompute)
	if err != nil {
		return err
	}
	fmt.Printf("Statuses recomputed at %s\n", last)
	return nil
}

func cmdBackup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	dir := fs.String("dir", cfg.BackupDir, "backup directory")
	keep := fs.Int("keep", cfg.BackupKeepDays, "days to keep old backups (0 keeps all)")
	fs.Parse(args)

	database, err := bootstrap.Open(context.Background(), *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	path, err := backup.Run(context.Background(), database, *dir, *keep)
	if err != nil {
		return err
	}
	fmt.Printf("Backup written: %s\n", path)
	return nil
}

func cmdExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	out := fs.String("o", backup.ExportFileName(), "output file")
	fs.Parse(args)

	database, err := bootstrap.Open(context.Background(), *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	// Snapshot refuses to overwrite, so export goes straight to the target.
	if err := backup.Snapshot(context.Background(), database, *out); err != nil {
		return err
	}
	fmt.Printf("Database exported: %s\n", *out)
	return nil
}

func cmdImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "path to SQLite database file")
	dir := fs.String("dir", cfg.BackupDir, "directory for the pre-import copy")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("import needs exactly one database file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	database, err := bootstrap.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	saved, err := backup.Import(ctx, database, f, *dir)
	if err != nil {
		return err
	}
	changed, err := store.RecomputeAll(ctx, database)
	if err != nil {
		return err
	}

	slog.Info("import finished", "statuses_changed", changed)
	fmt.Printf("Database imported. Previous contents saved to %s\n", saved)
	return nil
}
