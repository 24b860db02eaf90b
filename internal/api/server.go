// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api provides the boomctl HTTP surface: the reconciled state, the
// command intents, playlist management and a websocket stream of state
// changes.
package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ManuGH/boomctl/internal/health"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/reconcile"
)

// Config configures the HTTP surface.
type Config struct {
	AllowedOrigins []string
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	// TracingService enables server spans when non-empty.
	TracingService string
}

// Server serves the boomctl API for one reconciler.
type Server struct {
	cfg      Config
	rec      *reconcile.Reconciler
	health   *health.Manager
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	// streams tracks open event streams so Close can end them.
	mu      sync.Mutex
	streams map[*websocket.Conn]struct{}
	closed  bool
}

// New creates the API server. hm may be nil, in which case the probe
// endpoints report healthy without checks.
func New(cfg Config, rec *reconcile.Reconciler, hm *health.Manager) *Server {
	if hm == nil {
		hm = health.NewManager("")
	}
	s := &Server{
		cfg:     cfg,
		rec:     rec,
		health:  hm,
		logger:  log.WithComponent("api"),
		streams: make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// HealthManager returns the health check manager
func (s *Server) HealthManager() *health.Manager {
	return s.health
}

// originChecker allows requests without Origin, same-host origins and the
// configured origins ("*" allows all).
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
