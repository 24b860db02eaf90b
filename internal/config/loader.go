// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment keys.
const (
	EnvLogLevel          = "BOOMCTL_LOG_LEVEL"
	EnvLogService        = "BOOMCTL_LOG_SERVICE"
	EnvDeviceURL         = "BOOMCTL_DEVICE_URL"
	EnvDeviceAPIPrefix   = "BOOMCTL_DEVICE_API_PREFIX"
	EnvDeviceTimeout     = "BOOMCTL_DEVICE_TIMEOUT"
	EnvDeviceRateLimit   = "BOOMCTL_DEVICE_RATE_LIMIT"
	EnvDeviceRateBurst   = "BOOMCTL_DEVICE_RATE_BURST"
	EnvPollInterval      = "BOOMCTL_POLL_INTERVAL"
	EnvSettleDelay       = "BOOMCTL_SETTLE_DELAY"
	EnvListen            = "BOOMCTL_LISTEN"
	EnvAllowedOrigins    = "BOOMCTL_ALLOWED_ORIGINS"
	EnvAPIRateLimit      = "BOOMCTL_API_RATE_LIMIT"
	EnvMetricsListen     = "BOOMCTL_METRICS_LISTEN"
	EnvTelemetryEnabled  = "BOOMCTL_TELEMETRY_ENABLED"
	EnvTelemetryEnv      = "BOOMCTL_TELEMETRY_ENVIRONMENT"
	EnvTelemetryExporter = "BOOMCTL_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint = "BOOMCTL_TELEMETRY_ENDPOINT"
	EnvTelemetrySampling = "BOOMCTL_TELEMETRY_SAMPLING"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty configPath means
// ENV-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, if any.
func (l *Loader) Path() string { return l.configPath }

// Load loads configuration with precedence ENV > File > Defaults and validates
// the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file over dst. Keys absent from the file keep
// their current value.
func (l *Loader) loadFile(path string, dst *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	dst.Device.BaseURL = os.ExpandEnv(dst.Device.BaseURL)
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)

	cfg.Device.BaseURL = l.envString(EnvDeviceURL, cfg.Device.BaseURL)
	cfg.Device.APIPrefix = l.envString(EnvDeviceAPIPrefix, cfg.Device.APIPrefix)
	cfg.Device.Timeout = track(l, EnvDeviceTimeout, ParseDuration(EnvDeviceTimeout, cfg.Device.Timeout))
	cfg.Device.RateLimit = track(l, EnvDeviceRateLimit, ParseFloat(EnvDeviceRateLimit, cfg.Device.RateLimit))
	cfg.Device.RateBurst = track(l, EnvDeviceRateBurst, ParseInt(EnvDeviceRateBurst, cfg.Device.RateBurst))

	cfg.Reconcile.PollInterval = track(l, EnvPollInterval, ParseDuration(EnvPollInterval, cfg.Reconcile.PollInterval))
	cfg.Reconcile.SettleDelay = track(l, EnvSettleDelay, ParseDuration(EnvSettleDelay, cfg.Reconcile.SettleDelay))

	cfg.API.ListenAddr = l.envString(EnvListen, cfg.API.ListenAddr)
	cfg.API.AllowedOrigins = track(l, EnvAllowedOrigins, ParseList(EnvAllowedOrigins, cfg.API.AllowedOrigins))
	cfg.API.RateLimit = track(l, EnvAPIRateLimit, ParseInt(EnvAPIRateLimit, cfg.API.RateLimit))

	cfg.Metrics.ListenAddr = l.envString(EnvMetricsListen, cfg.Metrics.ListenAddr)

	cfg.Telemetry.Enabled = track(l, EnvTelemetryEnabled, ParseBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled))
	cfg.Telemetry.Environment = l.envString(EnvTelemetryEnv, cfg.Telemetry.Environment)
	cfg.Telemetry.ExporterType = l.envString(EnvTelemetryExporter, cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = track(l, EnvTelemetrySampling, ParseFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate))
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func track[T any](l *Loader, key string, v T) T {
	l.ConsumedEnvKeys[key] = struct{}{}
	return v
}
