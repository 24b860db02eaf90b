// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package boombox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

type callLog struct {
	mu    sync.Mutex
	calls []recorded
}

func (l *callLog) all() []recorded {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recorded(nil), l.calls...)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *callLog) {
	t.Helper()
	log := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &rec.body)
			}
		}
		log.mu.Lock()
		log.calls = append(log.calls, rec)
		log.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, Options{HTTPClient: &http.Client{Timeout: 500 * time.Millisecond}})
	require.NoError(t, err)
	return c, log
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func okAck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ack{Status: "ok", Message: "done"})
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("not a url", Options{})
	assert.Error(t, err)
}

func TestClient_Status(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"lastCommand":{"hasChanges":true,"mode":"Web","control":"Volume","value":12},
			"currentStatus":{"hasUpdate":true,"mode":"Web","web":{"uri":"http://s","station":"Jazz","stationIndex":3}}}`)
	})

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Volume", st.LastCommand.Control)
	assert.Equal(t, "Web", st.CurrentStatus.Mode)
	require.NotNil(t, st.CurrentStatus.Web)
	assert.Equal(t, 3, st.CurrentStatus.Web.StationIndex)
	assert.Nil(t, st.CurrentStatus.Air)
	assert.Equal(t, "/api/boombox/status", calls.all()[0].path)
}

func TestClient_SendControlBody(t *testing.T) {
	c, calls := newTestClient(t, okAck)

	_, err := c.SendControl(context.Background(), ControlRequest{Control: 15, Value: 20})
	require.NoError(t, err)
	_, err = c.SendControl(context.Background(), ControlRequest{Control: 0, Value: 0, Mode: "Web"})
	require.NoError(t, err)

	got := calls.all()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/api/boombox/control", got[0].path)
	assert.NotContains(t, got[0].body, "mode")
	assert.EqualValues(t, 15, got[0].body["control"])
	assert.Equal(t, "Web", got[1].body["mode"])
}

func TestClient_UpdateOmitsEmptyFields(t *testing.T) {
	c, calls := newTestClient(t, okAck)

	require.NoError(t, c.UpdateStation(context.Background(), 2, "", "http://new"))
	body := calls.all()[0].body
	assert.EqualValues(t, 2, body["index"])
	assert.NotContains(t, body, "title")
	assert.Equal(t, "http://new", body["url"])
}

func TestClient_PlaylistEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"count":0}`)
	})
	pl, err := c.Playlist(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pl.Stations)
	assert.Empty(t, pl.Stations)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		sentinel error
		message  string
	}{
		{
			name: "device rejection with body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: "Failed to delete station"})
			},
			sentinel: ErrRejected,
			message:  "Failed to delete station",
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "Missing or invalid 'index'"})
			},
			sentinel: ErrRejected,
			message:  "Missing or invalid 'index'",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
			sentinel: ErrNotFound,
		},
		{
			name: "bare 500",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			sentinel: ErrUnavailable,
		},
		{
			name: "undecodable",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "{not-json")
			},
			sentinel: ErrBadResponse,
		},
		{
			name: "ack not ok",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, Ack{Status: "error", Message: "busy"})
			},
			sentinel: ErrRejected,
			message:  "busy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			err := c.DeleteStation(context.Background(), 9)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)

			var de *DeviceError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "playlist.delete", de.Operation)
			if tt.message != "" {
				assert.Equal(t, tt.message, Message(err))
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(okAck))
	base := srv.URL
	srv.Close()

	c, err := NewClient(base, Options{HTTPClient: &http.Client{Timeout: 200 * time.Millisecond}})
	require.NoError(t, err)

	_, err = c.Status(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestClient_CustomPrefix(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = io.WriteString(w, `{"mode":"Air","airConfig":{"fmStations":[10060]}}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", Options{APIPrefix: "box/v2/"})
	require.NoError(t, err)
	cfg, err := c.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/box/v2/config", path)
	assert.Equal(t, []int{10060}, cfg.AirConfig.FMStations)
}

func TestClient_RecordsMetrics(t *testing.T) {
	c, _ := newTestClient(t, okAck)
	before := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodPost, EndpointPlaylistMove, "2xx"))

	require.NoError(t, c.MoveStation(context.Background(), 2, 0))
	assert.Equal(t, before+1, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodPost, EndpointPlaylistMove, "2xx")))
}

func TestClient_CanceledContext(t *testing.T) {
	c, calls := newTestClient(t, okAck)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendControl(ctx, ControlRequest{Control: 8, Value: 1})
	require.Error(t, err)
	assert.Empty(t, calls.all())
}
