package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/api"
	"github.com/erazemk/ambulanta/internal/backup"
	"github.com/erazemk/ambulanta/internal/bootstrap"
	"github.com/erazemk/ambulanta/internal/config"
	"github.com/erazemk/ambulanta/internal/report"
	"github.com/erazemk/ambulanta/internal/scheduler"
	"github.com/erazemk/ambulanta/internal/store"
)

// tokenPruneCron clears expired token revocations once a night.
const tokenPruneCron = "0 4 * * *"

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("ambulanta", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	fs.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.BackupDir, "backup-dir", cfg.BackupDir, "")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: ambulanta [flags]

Flags:
  -d, -db <path>          SQLite database path (default: ambulanta.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -b, -backup-dir <path>  directory for nightly and pre-import backups (default: backups)
  -h, -help               show this help and exit

Defaults can also be set with AMBULANTA_* environment variables or a .env file.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if !report.ValidCharset(cfg.ExportCharset) {
		fmt.Fprintf(os.Stderr, "error: unsupported export charset %q\n", cfg.ExportCharset)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	ctx := context.Background()

	// Auto-init on first run.
	if _, err := os.Stat(cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		password, err := bootstrap.Init(ctx, cfg.DBPath, cfg.AdminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		bootstrap.PrintInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	// Open, migrate and recompute statuses for today.
	database, err := bootstrap.Open(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	sched, err := newScheduler(database, cfg)
	if err != nil {
		slog.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}
	sched.Start()

	router := api.NewRouter(database, jwtSecret, api.Options{
		BackupDir:     cfg.BackupDir,
		ExportCharset: cfg.ExportCharset,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		if err := sched.Stop(ctx); err != nil {
			slog.Error("scheduled jobs did not stop", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// newScheduler registers the nightly maintenance jobs. Jobs with an empty
// schedule are skipped.
func newScheduler(database *sqlx.DB, cfg *config.Config) (*scheduler.Scheduler, error) {
	sched := scheduler.New(slog.Default())

	jobs := []struct {
		name string
		spec string
		job  scheduler.Job
	}{
		{"recompute", cfg.RecomputeCron, func(ctx context.Context) error {
			changed, err := store.RecomputeAll(ctx, database)
			if err == nil {
				slog.Info("statuses recomputed", "changed", changed)
			}
			return err
		}},
		{"backup", cfg.BackupCron, func(ctx context.Context) error {
			_, err := backup.Run(ctx, database, cfg.BackupDir, cfg.BackupKeepDays)
			return err
		}},
		{"prune-tokens", tokenPruneCron, func(ctx context.Context) error {
			n, err := store.PruneRevokedTokens(ctx, database)
			if err == nil && n > 0 {
				slog.Info("expired token revocations removed", "count", n)
			}
			return err
		}},
	}

	for _, j := range jobs {
		if j.spec == "" {
			slog.Info("job disabled", "job", j.name)
			continue
		}
		if err := sched.Add(j.name, j.spec, j.job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
