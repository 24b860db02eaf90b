// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/boomctl/internal/reconcile"
)

// PlaylistResponse is the GET /playlist body.
type PlaylistResponse struct {
	Stations    []reconcile.Station `json:"stations"`
	Loaded      bool                `json:"loaded"`
	ActiveIndex int                 `json:"activeIndex"`
	Busy        bool                `json:"busy"`
}

type indexRequest struct {
	Index *int `json:"index"`
}

type stationRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type moveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (s *Server) playlistResponse() PlaylistResponse {
	v := s.rec.State()
	stations := v.Playlist
	if stations == nil {
		stations = []reconcile.Station{}
	}
	return PlaylistResponse{
		Stations:    stations,
		Loaded:      v.PlaylistLoaded,
		ActiveIndex: v.ActiveIndex,
		Busy:        v.PlaylistBusy,
	}
}

// playlistDone replies with the local playlist after an operation.
func (s *Server) playlistDone(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.playlistResponse())
}

func pathIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %q", reconcile.ErrInvalidIndex, raw)
	}
	return i, nil
}

func (s *Server) handlePlaylist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.playlistResponse())
}

func (s *Server) handleReloadPlaylist(w http.ResponseWriter, r *http.Request) {
	_, err := s.rec.Playlist().Load(r.Context())
	s.playlistDone(w, r, err)
}

func (s *Server) handleSelectStation(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	index, err := required(req.Index, "index", reconcile.ErrInvalidIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Selection answers with the full view: it touches the web status too.
	s.commandDone(w, r, s.rec.Playlist().Select(r.Context(), index))
}

func (s *Server) handleAddStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := s.rec.Playlist().Add(r.Context(), req.Title, req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.playlistResponse())
}

func (s *Server) handleUpdateStation(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req stationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.playlistDone(w, r, s.rec.Playlist().Update(r.Context(), index, req.Title, req.URL))
}

func (s *Server) handleDeleteStation(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.playlistDone(w, r, s.rec.Playlist().Delete(r.Context(), index))
}

func (s *Server) handleMoveStation(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	from, err := required(req.From, "from", reconcile.ErrInvalidIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := required(req.To, "to", reconcile.ErrInvalidIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.playlistDone(w, r, s.rec.Playlist().Move(r.Context(), from, to))
}

func (s *Server) handleMoveUp(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.playlistDone(w, r, s.rec.Playlist().MoveUp(r.Context(), index))
}

func (s *Server) handleMoveDown(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.playlistDone(w, r, s.rec.Playlist().MoveDown(r.Context(), index))
}
