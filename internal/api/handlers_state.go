// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
)

// handleState returns the reconciled view.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rec.State())
}

func (s *Server) handleClearError(w http.ResponseWriter, _ *http.Request) {
	s.rec.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh polls the device now and returns the result.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.rec.Refresh(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.rec.State())
}

// handleDeviceConfig passes the appliance configuration through.
func (s *Server) handleDeviceConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.rec.DeviceConfig(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
