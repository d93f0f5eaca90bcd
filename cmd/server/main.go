package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/internal/logging"
	"github.com/me/batchsim/internal/server"
	"github.com/me/batchsim/internal/store"
)

func main() {
	cfg := config.DefaultServerConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.batchsim/runs.db)")
	flag.IntVar(&cfg.Sim.Capacity, "capacity", cfg.Sim.Capacity, "Default process table size for submitted runs")
	flag.Uint64Var((*uint64)(&cfg.Sim.Quantum), "quantum", uint64(cfg.Sim.Quantum), "Default quantum for submitted runs")
	flag.Uint64Var((*uint64)(&cfg.Sim.MaxTicks), "max-ticks", uint64(cfg.Sim.MaxTicks), "Time limit for submitted runs")
	flag.IntVar(&cfg.MaxConcurrentRuns, "max-runs", cfg.MaxConcurrentRuns, "Simulations executing at once (0 for unlimited)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	if _, err := logging.ParseFormat(cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.NewLogger(logging.ResolveLevel(cfg.LogLevel, *debug), cfg.LogFormat)

	// Resolve database path.
	if cfg.DBPath == "" {
		p, err := config.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg.DBPath = p
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.DBPath)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, st, logger).ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
