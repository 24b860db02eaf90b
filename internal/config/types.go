// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the complete daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	Device    DeviceConfig    `yaml:"device"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	API       APIConfig       `yaml:"api"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DeviceConfig addresses the appliance HTTP API.
type DeviceConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	APIPrefix string        `yaml:"apiPrefix"`
	Timeout   time.Duration `yaml:"timeout"`
	// RateLimit is requests per second towards the device; RateBurst the bucket size.
	RateLimit float64 `yaml:"rateLimit"`
	RateBurst int     `yaml:"rateBurst"`
}

// ReconcileConfig holds the poll and settle timings.
type ReconcileConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	SettleDelay  time.Duration `yaml:"settleDelay"`
}

// APIConfig configures the boomctl HTTP surface.
type APIConfig struct {
	ListenAddr     string   `yaml:"listenAddr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rateLimit"`
}

// MetricsConfig configures the Prometheus listener. Empty ListenAddr disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Environment  string  `yaml:"environment"`
	ExporterType string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the configuration used when neither file nor ENV set a key.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "boomctl",
		Device: DeviceConfig{
			BaseURL:   "http://192.168.4.1",
			APIPrefix: "/api/boombox",
			Timeout:   5 * time.Second,
			RateLimit: 10,
			RateBurst: 20,
		},
		Reconcile: ReconcileConfig{
			PollInterval: 2 * time.Second,
			SettleDelay:  300 * time.Millisecond,
		},
		API: APIConfig{
			ListenAddr: ":8088",
			RateLimit:  600,
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9098",
		},
		Telemetry: TelemetryConfig{
			Environment:  "production",
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}
