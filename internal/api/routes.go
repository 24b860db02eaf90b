// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/boomctl/internal/api/middleware"
)

// APIPrefix is the versioned base path.
const APIPrefix = "/api/v1"

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		TracingService: s.cfg.TracingService,
		EnableMetrics:  true,
		EnableLogging:  true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route(APIPrefix, func(r chi.Router) {
		// The event stream is long-lived; keep it outside the rate limit.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			if s.cfg.RateLimit > 0 {
				r.Use(middleware.APIRateLimit(s.cfg.RateLimit))
			}

			r.Get("/state", s.handleState)
			r.Delete("/state/error", s.handleClearError)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/config", s.handleDeviceConfig)

			r.Post("/mode", s.handleMode)
			r.Post("/control", s.handleControl)
			r.Post("/band", s.handleBand)
			r.Post("/frequency", s.handleFrequency)
			r.Post("/seek", s.handleSeek)
			r.Post("/station-step", s.handleStationStep)
			r.Post("/volume", s.handleVolume)
			r.Post("/play", s.handlePlay)

			r.Route("/playlist", func(r chi.Router) {
				r.Get("/", s.handlePlaylist)
				r.Post("/", s.handleAddStation)
				r.Post("/reload", s.handleReloadPlaylist)
				r.Post("/select", s.handleSelectStation)
				r.Post("/move", s.handleMoveStation)
				r.Patch("/{index}", s.handleUpdateStation)
				r.Delete("/{index}", s.handleDeleteStation)
				r.Post("/{index}/up", s.handleMoveUp)
				r.Post("/{index}/down", s.handleMoveDown)
			})
		})
	})

	return r
}
