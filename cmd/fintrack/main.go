package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/shell"
	"fintrack/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second signal terminates immediately.
	context.AfterFunc(ctx, stop)

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fintrack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a YAML config file (default ./fintrack.yaml if present)")
	dbPath := fs.String("db", "", "Path to sqlite database file (overrides DB_PATH and selects sqlite)")
	chartDir := fs.String("charts", "", "Directory for rendered charts (overrides CHART_DIR)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = *dbPath
	}
	if *chartDir != "" {
		cfg.Chart.Dir = *chartDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(stderr, cfg.Log.Development, logger.LogLevel(strings.ToLower(cfg.Log.Level)))
	defer func() { _ = log.Sync() }()

	db, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	log.Info("starting shell",
		zap.String("driver", cfg.Database.Driver),
		zap.String("chart_dir", cfg.Chart.Dir),
	)

	sh := shell.New(db, stdin, stdout, shell.Options{Logger: log, ChartDir: cfg.Chart.Dir})
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
