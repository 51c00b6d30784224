package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/akvarma/devpulse/internal/alerter"
	"github.com/akvarma/devpulse/internal/api"
	"github.com/akvarma/devpulse/internal/config"
	"github.com/akvarma/devpulse/internal/notify"
	"github.com/akvarma/devpulse/internal/scheduler"
	"github.com/akvarma/devpulse/internal/settings"
	"github.com/akvarma/devpulse/internal/simulator"
	"github.com/akvarma/devpulse/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// buildInfo returns version, commit, build time, and VCS details from the
// embedded Go build info. ldflags-injected values take priority; VCS info
// from debug.ReadBuildInfo fills in anything left as default.
func buildInfo() (ver, sha, built, dirty string) {
	ver = version
	sha = commit
	built = buildTime
	dirty = "clean"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if sha == "none" {
				sha = s.Value
			}
		case "vcs.time":
			if built == "unknown" {
				built = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "dirty"
			}
		}
	}

	return
}

func main() {
	configPath := flag.String("config", "", "path to devpulse.yml config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	ver, sha, built, dirty := buildInfo()

	if *showVersion {
		fmt.Printf("devpulse %s\n  commit:    %s (%s)\n  built:     %s\n  go:        %s\n  platform:  %s/%s\n",
			ver, sha, dirty, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigFileNotFound) {
			fmt.Fprintf(os.Stderr, "error: %s\n\n", err)
			fmt.Fprintf(os.Stderr, "Copy the example config to get started:\n")
			fmt.Fprintf(os.Stderr, "  cp devpulse.example.yml %s\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "error: loading config (%s): %s\n", *configPath, err)
		}
		os.Exit(1)
	}

	// Configure logging
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("starting devpulse",
		"version", ver,
		"commit", sha,
		"built", built,
		"dirty", dirty,
		"go", runtime.Version(),
		"listen", cfg.Listen,
	)

	// Initialize store. Failure here is fatal: nothing can proceed without
	// durable storage.
	st, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Runtime-mutable settings, seeded from config.
	set := settings.New(cfg.Theme, cfg.AlertEmailTo, cfg.RefreshInterval)

	// The simulated fleet.
	fleet := simulator.NewFleet(cfg.Devices)

	// Setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Build notification providers. SMTP only when fully configured; the
	// recipient list is read from settings at send time.
	var providers []notify.Provider
	if cfg.SMTP.Configured() {
		providers = append(providers, notify.NewSMTP(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password,
			set.AlertRecipients,
		))
	}
	for _, ncfg := range cfg.Notifications {
		switch ncfg.Type {
		case "webhook":
			providers = append(providers, notify.NewWebhook(ncfg.URL, ncfg.Method, ncfg.Headers))
		case "mqtt":
			p, err := notify.NewMQTT(ncfg.Broker, ncfg.ClientID, ncfg.Username, ncfg.Password, ncfg.Topic)
			if err != nil {
				slog.Error("connecting mqtt notifier", "broker", ncfg.Broker, "error", err)
				continue
			}
			defer p.Close()
			providers = append(providers, p)
		}
	}
	if len(providers) == 0 {
		slog.Warn("no notification transport configured; alerts will only be recorded locally")
	}

	al := alerter.New(st, providers)

	// Start the sampling scheduler.
	sched := scheduler.New(fleet, st, al, set)
	sched.Start(ctx)

	g, ctx := errgroup.WithContext(ctx)

	// Start pruner
	retention := store.RetentionConfig{
		Snapshots: cfg.SnapshotTTL.Duration,
		AlertLog:  cfg.AlertLogTTL.Duration,
	}
	pruner := store.NewPruner(st, retention)
	g.Go(func() error { return pruner.Run(ctx) })

	// Start HTTP server
	server := api.NewServer(cfg.Listen, fleet, st, set, sched)
	g.Go(func() error { return server.Run(ctx) })

	slog.Info("all components started",
		"devices", len(cfg.Devices),
		"notifications", len(providers),
		"refresh_interval", set.RefreshInterval(),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "error", err)
	}

	// Bounded join: the scheduler gets up to two seconds to finish its
	// in-flight cycle before the process exits.
	sched.Stop()

	slog.Info("devpulse stopped gracefully")
}
