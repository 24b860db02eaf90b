// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command daemon runs boomctl: it reconciles the boombox appliance state and
// serves it over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ManuGH/boomctl/internal/api"
	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/config"
	"github.com/ManuGH/boomctl/internal/daemon"
	"github.com/ManuGH/boomctl/internal/health"
	xglog "github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/reconcile"
	"github.com/ManuGH/boomctl/internal/telemetry"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const envConfigPath = "BOOMCTL_CONFIG"

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "boomctl",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString(envConfigPath, ""))
	}

	// Precedence: ENV > File > Defaults
	loader := config.NewLoader(path, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("loaded configuration")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "telemetry.init_failed").
			Msg("failed to initialise telemetry")
	}

	client, err := boombox.NewClient(cfg.Device.BaseURL, boombox.Options{
		Timeout:        cfg.Device.Timeout,
		APIPrefix:      cfg.Device.APIPrefix,
		RateLimit:      rate.Limit(cfg.Device.RateLimit),
		RateLimitBurst: cfg.Device.RateBurst,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "device.client_failed").
			Msg("failed to create device client")
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.API.ListenAddr).
		Msg("starting boomctl")
	logger.Info().Msgf("→ Device: %s%s", maskURL(cfg.Device.BaseURL), cfg.Device.APIPrefix)
	logger.Info().Msgf("→ Poll interval: %s (settle %s)", cfg.Reconcile.PollInterval, cfg.Reconcile.SettleDelay)
	if cfg.Metrics.ListenAddr != "" {
		logger.Info().Msgf("→ Metrics: %s", cfg.Metrics.ListenAddr)
	}

	// The appliance often boots after us; the poller keeps retrying.
	if err := health.PerformStartupChecks(ctx, maskURL(cfg.Device.BaseURL), func(ctx context.Context) error {
		_, err := client.Config(ctx)
		return err
	}); err != nil {
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "startup.device_unreachable").
			Msg("device not reachable yet, continuing")
	}

	rec := reconcile.New(client, reconcile.Options{
		PollInterval: cfg.Reconcile.PollInterval,
		SettleDelay:  cfg.Reconcile.SettleDelay,
	})

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewPollChecker(
		rec.LastPollSuccess,
		func() string { return rec.State().LastError },
		cfg.Reconcile.PollInterval,
	))

	s := api.New(api.Config{
		AllowedOrigins: cfg.API.AllowedOrigins,
		RateLimit:      cfg.API.RateLimit,
		TracingService: cfg.LogService,
	}, rec, hm)

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.API.ListenAddr), daemon.Deps{
		Logger:         logger,
		APIHandler:     s.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.Metrics.ListenAddr,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.creation.failed").
			Msg("failed to create daemon manager")
	}
	// LIFO: streams close first, telemetry flushes last.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("event_streams", func(context.Context) error {
		s.Close()
		return nil
	})

	cfgHolder := config.NewConfigHolder(cfg, loader)

	app := daemon.NewApp(logger, mgr, cfgHolder, rec)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}
