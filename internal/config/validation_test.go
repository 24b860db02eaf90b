// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(Defaults()))
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"bad level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"relative url", func(c *AppConfig) { c.Device.BaseURL = "boombox.local" }, "device.baseUrl"},
		{"ftp url", func(c *AppConfig) { c.Device.BaseURL = "ftp://boombox" }, "device.baseUrl"},
		{"prefix", func(c *AppConfig) { c.Device.APIPrefix = "api" }, "device.apiPrefix"},
		{"timeout", func(c *AppConfig) { c.Device.Timeout = 0 }, "device.timeout"},
		{"rate", func(c *AppConfig) { c.Device.RateLimit = 0 }, "device.rateLimit"},
		{"burst", func(c *AppConfig) { c.Device.RateBurst = 0 }, "device.rateBurst"},
		{"poll too fast", func(c *AppConfig) { c.Reconcile.PollInterval = 100 * time.Millisecond }, "pollInterval"},
		{"settle negative", func(c *AppConfig) { c.Reconcile.SettleDelay = -time.Second }, "settleDelay"},
		{"settle longer than poll", func(c *AppConfig) { c.Reconcile.SettleDelay = 3 * time.Second }, "shorter than"},
		{"listen", func(c *AppConfig) { c.API.ListenAddr = "8080" }, "api.listenAddr"},
		{"metrics clash", func(c *AppConfig) { c.Metrics.ListenAddr = c.API.ListenAddr }, "must differ"},
		{"exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.ExporterType = "zipkin" }, "telemetry.exporter"},
		{"sampling", func(c *AppConfig) { c.Telemetry.SamplingRate = 1.5 }, "samplingRate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Device.Timeout = 0

	var verr *ValidationError
	require.ErrorAs(t, Validate(cfg), &verr)
	assert.Len(t, verr.Problems, 2)
}

func TestValidate_MetricsDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.Metrics.ListenAddr = ""
	assert.NoError(t, Validate(cfg))
}
