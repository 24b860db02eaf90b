// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const minPollInterval = 250 * time.Millisecond

// Validate checks the complete configuration and reports every problem at once.
func Validate(cfg AppConfig) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel %q is not a valid level", cfg.LogLevel)
	}

	if u, err := url.Parse(cfg.Device.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		add("device.baseUrl %q must be an absolute http(s) URL", cfg.Device.BaseURL)
	}
	if p := cfg.Device.APIPrefix; p != "" && !strings.HasPrefix(p, "/") {
		add("device.apiPrefix %q must start with /", p)
	}
	if cfg.Device.Timeout <= 0 {
		add("device.timeout must be positive")
	}
	if cfg.Device.RateLimit <= 0 {
		add("device.rateLimit must be positive")
	}
	if cfg.Device.RateBurst < 1 {
		add("device.rateBurst must be at least 1")
	}

	if cfg.Reconcile.PollInterval < minPollInterval {
		add("reconcile.pollInterval must be at least %s", minPollInterval)
	}
	if cfg.Reconcile.SettleDelay < 0 {
		add("reconcile.settleDelay must not be negative")
	}
	if cfg.Reconcile.SettleDelay >= cfg.Reconcile.PollInterval && cfg.Reconcile.PollInterval > 0 {
		add("reconcile.settleDelay must be shorter than reconcile.pollInterval")
	}

	if err := validateListenAddr(cfg.API.ListenAddr); err != nil {
		add("api.listenAddr: %v", err)
	}
	if cfg.API.RateLimit < 0 {
		add("api.rateLimit must not be negative")
	}
	if cfg.Metrics.ListenAddr != "" {
		if err := validateListenAddr(cfg.Metrics.ListenAddr); err != nil {
			add("metrics.listenAddr: %v", err)
		} else if cfg.Metrics.ListenAddr == cfg.API.ListenAddr {
			add("metrics.listenAddr must differ from api.listenAddr")
		}
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.ExporterType {
		case "grpc", "http":
		default:
			add("telemetry.exporter %q must be grpc or http", cfg.Telemetry.ExporterType)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if r := cfg.Telemetry.SamplingRate; r < 0 || r > 1 {
		add("telemetry.samplingRate must be within [0,1]")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateListenAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("must not be empty")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return err
	}
	return nil
}
