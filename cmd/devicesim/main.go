// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command devicesim serves an in-process boombox appliance over HTTP so the
// daemon can be exercised without hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/boomctl/internal/devicesim"
	xglog "github.com/ManuGH/boomctl/internal/log"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	listen := flag.String("listen", ":8089", "listen address")
	prefix := flag.String("prefix", devicesim.DefaultPrefix, "API prefix served by the appliance")
	playlistPath := flag.String("playlist", "", "PLS file backing the station list (empty keeps it in memory)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{
		Level:   *logLevel,
		Service: "boomctl-devicesim",
		Version: version,
	})
	logger := xglog.WithComponent("devicesim")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *devicesim.Store
	if *playlistPath == "" {
		store = devicesim.NewMemoryStore()
	} else {
		var err error
		store, err = devicesim.OpenStore(*playlistPath)
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "playlist.open_failed").
				Str(xglog.FieldPath, *playlistPath).
				Msg("failed to open playlist")
		}
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           xglog.Middleware()(devicesim.NewHandler(devicesim.NewDevice(store), *prefix)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("event", "startup").
			Str("version", version).
			Str("addr", *listen).
			Str("prefix", *prefix).
			Int("stations", store.Len()).
			Msg("starting device simulator")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Str("event", "server.failed").Msg("device simulator failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Str("event", "shutdown.failed").Msg("graceful shutdown failed")
	}
	logger.Info().Msg("device simulator exiting")
}
