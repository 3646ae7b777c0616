package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"agendapro/internal/alerts"
	"agendapro/internal/config"
	appLog "agendapro/internal/log"
	"agendapro/internal/store"
	"agendapro/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	dataDir    string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("agendapro starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"scan_schedule", conf.ScanSchedule,
		"data_dir", conf.DataDir,
		"default_hour", conf.DefaultHour,
		"horizon_days", conf.HorizonDays,
		"once", flags.once,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
		loc = time.Local
	}

	eventStore, err := store.Open(filepath.Join(conf.DataDir, "events.json"))
	if err != nil {
		appLog.Error("failed to open event store", err, "data_dir", conf.DataDir)
		os.Exit(1)
	}

	alertStore := alerts.NewStore()
	scanner := alerts.NewScanner(alertStore, eventStore, loc)

	if flags.once {
		// Single scan pass, report, exit.
		scanner.RunOnce()
		for _, a := range alertStore.List() {
			appLog.Info("alert", "id", a.ID, "urgency", string(a.Urgency), "message", a.Message)
		}
		return
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := scanner.Start(conf.ScanSchedule); err != nil {
		appLog.Error("failed to start reminder scanner", err, "schedule", conf.ScanSchedule)
		os.Exit(1)
	}
	defer scanner.Stop()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, eventStore, alertStore, loc).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}

	appLog.Info("agendapro exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/agendapro/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.dataDir, "data", "", "Data directory (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one reminder scan pass and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
