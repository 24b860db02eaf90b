// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package devicesim

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/log"
)

// maxBodyBytes matches the firmware's request buffer.
const maxBodyBytes = 2048

// DefaultPrefix is where the firmware mounts its API.
const DefaultPrefix = "/api/boombox"

type handler struct {
	dev    *Device
	logger zerolog.Logger
}

// NewHandler serves the appliance API for dev under prefix.
func NewHandler(dev *Device, prefix string) http.Handler {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	h := &handler{dev: dev, logger: log.WithComponent("devicesim")}

	r := chi.NewRouter()
	r.Use(cors)
	r.Route(prefix, func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/config", h.config)
		r.Post("/control", h.control)
		r.Get("/playlist", h.list)
		r.Post("/playlist/select", h.selectStation)
		r.Post("/playlist/add", h.add)
		r.Post("/playlist/delete", h.delete)
		r.Post("/playlist/update", h.update)
		r.Post("/playlist/move", h.move)
	})
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dev.Status())
}

func (h *handler) config(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dev.Config())
}

func (h *handler) control(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var cmd Command
	cmd.Mode, _ = stringField(body, "mode")
	cmd.Control, _ = intField(body, "control")
	cmd.Value, _ = intField(body, "value")

	if err := h.dev.Enqueue(cmd); err != nil {
		h.logger.Warn().Err(err).Str(log.FieldEvent, "devicesim.queue_full").Msg("control rejected")
		writeError(w, http.StatusInternalServerError, "Queue send failed")
		return
	}
	h.logger.Debug().
		Str(log.FieldEvent, "devicesim.control").
		Str(log.FieldMode, cmd.Mode).
		Int(log.FieldControl, cmd.Control).
		Int(log.FieldValue, cmd.Value).
		Msg("command queued")
	writeJSON(w, http.StatusOK, boombox.Ack{Status: "ok", Message: "Command sent successfully"})
}

func (h *handler) list(w http.ResponseWriter, _ *http.Request) {
	stations := h.dev.Store().List()
	writeJSON(w, http.StatusOK, boombox.Playlist{Count: len(stations), Stations: stations})
}

func (h *handler) selectStation(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	index, ok := intField(body, "index")
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing or invalid 'index' field")
		return
	}

	cmd := Command{Mode: string(boombox.ModeWeb), Control: int(boombox.ControlPlay), Value: index + boombox.SelectOffset}
	if err := h.dev.Enqueue(cmd); err != nil {
		writeError(w, http.StatusInternalServerError, "Queue send failed")
		return
	}
	writeJSON(w, http.StatusOK, boombox.Ack{Status: "ok", Message: "Station selected", Index: &index})
}

func (h *handler) add(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	title, okTitle := stringField(body, "title")
	url, okURL := stringField(body, "url")
	if !okTitle || !okURL {
		writeError(w, http.StatusBadRequest, "Missing 'title' or 'url'")
		return
	}
	if err := h.dev.Store().Add(title, url); err != nil {
		h.logger.Warn().Err(err).Str(log.FieldEvent, "devicesim.add_failed").Msg("add station failed")
		writeError(w, http.StatusInternalServerError, "Failed to add station")
		return
	}
	writeJSON(w, http.StatusOK, boombox.Ack{Status: "ok", Message: "Station added"})
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	index, ok := intField(body, "index")
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing or invalid 'index'")
		return
	}
	if err := h.dev.Store().Delete(index); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete station")
		return
	}
	writeJSON(w, http.StatusOK, boombox.Ack{Status: "ok", Message: "Station deleted", Index: &index})
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	index, ok := intField(body, "index")
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing or invalid 'index'")
		return
	}

	var title, url *string
	if s, ok := stringField(body, "title"); ok {
		title = &s
	}
	if s, ok := stringField(body, "url"); ok {
		url = &s
	}
	if err := h.dev.Store().Update(index, title, url); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update station")
		return
	}
	writeJSON(w, http.StatusOK, boombox.Ack{Status: "ok", Message: "Station updated", Index: &index})
}

func (h *handler) move(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSONBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	from, okFrom := intField(body, "from")
	to, okTo := intField(body, "to")
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, "Missing or invalid 'from'/'to'")
		return
	}
	if err := h.dev.Store().Move(from, to); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to move station")
		return
	}
	writeJSON(w, http.StatusOK, boombox.Ack{Status: "ok", Message: "Station moved", From: &from, To: &to})
}

// readJSONBody mirrors the firmware: empty or oversized bodies are invalid.
func readJSONBody(r *http.Request) (map[string]any, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxBodyBytes {
		return nil, false
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return nil, false
	}
	return body, true
}

func intField(body map[string]any, key string) (int, bool) {
	v, ok := body[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func stringField(body map[string]any, key string) (string, bool) {
	v, ok := body[key].(string)
	return v, ok
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, boombox.ErrorBody{Error: msg})
}
