// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/freq"
	"github.com/ManuGH/boomctl/internal/reconcile"
)

type modeRequest struct {
	Mode string `json:"mode"`
}

type controlRequest struct {
	Control *int   `json:"control"`
	Value   int    `json:"value"`
	Mode    string `json:"mode,omitempty"`
}

type bandRequest struct {
	Band string `json:"band"`
}

type frequencyRequest struct {
	Frequency string `json:"frequency"`
}

type directionRequest struct {
	Direction string `json:"direction"`
}

type volumeRequest struct {
	Volume *int   `json:"volume"`
	Mode   string `json:"mode,omitempty"`
}

type playRequest struct {
	Action string `json:"action"`
}

// commandDone replies with the optimistic view after an accepted command.
func (s *Server) commandDone(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.rec.State())
}

func parseMode(raw string) (boombox.Mode, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	m, ok := boombox.ParseMode(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", reconcile.ErrInvalidMode, raw)
	}
	return m, nil
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := parseMode(req.Mode)
	if err == nil && mode == "" {
		err = fmt.Errorf("%w: missing \"mode\"", reconcile.ErrInvalidMode)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.commandDone(w, r, s.rec.SwitchMode(r.Context(), mode))
}

// handleControl accepts the raw control shape; control 0 with a mode is a
// mode switch.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	control, err := required(req.Control, "control", reconcile.ErrInvalidCommand)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cmd, err := reconcile.ParseCommand(control, req.Value, req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.commandDone(w, r, s.rec.Send(r.Context(), cmd))
}

func (s *Server) handleBand(w http.ResponseWriter, r *http.Request) {
	var req bandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	band, ok := freq.ParseBand(req.Band)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %q", reconcile.ErrInvalidBand, req.Band))
		return
	}
	s.commandDone(w, r, s.rec.SetBand(r.Context(), band))
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	var req frequencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.commandDone(w, r, s.rec.SetFrequency(r.Context(), req.Frequency))
}

func parseDirection(raw string) (up bool, err error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up":
		return true, nil
	case "down":
		return false, nil
	}
	return false, fmt.Errorf("%w: direction %q", reconcile.ErrInvalidCommand, raw)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	up, err := parseDirection(req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.commandDone(w, r, s.rec.Seek(r.Context(), up))
}

func (s *Server) handleStationStep(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	up, err := parseDirection(req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.commandDone(w, r, s.rec.StationStep(r.Context(), up))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	volume, err := required(req.Volume, "volume", reconcile.ErrInvalidVolume)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.commandDone(w, r, s.rec.SetVolume(r.Context(), volume, mode))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	action, ok := boombox.ParsePlayAction(req.Action)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %q", reconcile.ErrInvalidAction, req.Action))
		return
	}
	s.commandDone(w, r, s.rec.Play(r.Context(), action))
}
