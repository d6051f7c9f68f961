package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/sredstva/internal/api"
	"github.com/erazemk/sredstva/internal/auth"
	"github.com/erazemk/sredstva/internal/config"
	"github.com/erazemk/sredstva/internal/db"
	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/notify"
	"github.com/erazemk/sredstva/internal/scheduler"
	"github.com/erazemk/sredstva/internal/seed"
	"github.com/erazemk/sredstva/internal/store"
	"github.com/erazemk/sredstva/internal/ticket"
	"github.com/erazemk/sredstva/internal/workflow"
)

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

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. The returned cleanup closes it.
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
	fs := flag.NewFlagSet("sredstva", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env", "", "")
	fs.StringVar(&envFile, "e", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var adminUser string
	fs.StringVar(&adminUser, "user", "", "")
	fs.StringVar(&adminUser, "u", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var seedPath string
	fs.StringVar(&seedPath, "seed", "", "")
	fs.StringVar(&seedPath, "s", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: sredstva [flags]

Flags:
  -e, -env <path>         .env file to load (default: .env if present)
  -d, -db <path>          SQLite database path (default: sredstva.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -s, -seed <path>        YAML catalog to load on startup
  -h, -help               show this help and exit

Flags override the SREDSTVA_* environment variables.
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

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	override(&cfg.DBPath, dbPath)
	override(&cfg.Addr, addr)
	override(&cfg.AdminUser, adminUser)
	override(&cfg.LogPath, logPath)
	override(&cfg.SeedPath, seedPath)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}

func run(cfg *config.Config) error {
	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()

	if cfg.SeedPath != "" {
		res, err := seed.ApplyFile(ctx, database, cfg.SeedPath)
		if err != nil {
			return fmt.Errorf("applying seed %s: %w", cfg.SeedPath, err)
		}
		slog.Info("seed applied", "path", cfg.SeedPath,
			"departments", res.Departments, "asset_types", res.AssetTypes, "stock", res.Stock)
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	var tickets ticket.Bridge
	if cfg.TicketURL != "" {
		tickets = ticket.NewHTTPBridge(cfg.TicketURL, cfg.TicketToken)
		slog.Info("using external ticket system", "url", cfg.TicketURL)
	} else {
		tickets = ticket.NewLocalBridge(database)
		slog.Info("using local ticket store")
	}

	notifier := notify.Multi{notify.LogSink{Logger: slog.Default()}}
	if cfg.NotifyURL != "" {
		notifier = append(notifier, notify.NewWebhookSink(cfg.NotifyURL))
	}

	wf := workflow.New(database, tickets, notifier)

	if cfg.LowStockCron != "" {
		sched := scheduler.New(database, notifier, cfg.LowStockCron)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
		slog.Info("low-stock check scheduled", "schedule", cfg.LowStockCron)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(database, jwtSecret, wf)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
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
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", err
	}

	fail := func(format string, err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf(format, err)
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail("ensuring schema: %w", err)
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fail("generating password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fail("hashing password: %w", err)
	}

	if _, err := store.CreateUser(context.Background(), database, adminUsername, hash, model.RoleAdmin, nil); err != nil {
		return fail("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
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
