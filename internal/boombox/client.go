// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package boombox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/platform/httpx"
	"github.com/ManuGH/boomctl/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 5 * time.Second
	defaultAPIPrefix      = "/api/boombox"
	defaultRateLimit      = 10
	defaultRateLimitBurst = 20
	maxResponseBytes      = 1 << 20
	maxErrorBodyBytes     = 256
)

// Endpoints relative to the API prefix.
const (
	EndpointStatus         = "/status"
	EndpointConfig         = "/config"
	EndpointControl        = "/control"
	EndpointPlaylist       = "/playlist"
	EndpointPlaylistSelect = "/playlist/select"
	EndpointPlaylistAdd    = "/playlist/add"
	EndpointPlaylistDelete = "/playlist/delete"
	EndpointPlaylistUpdate = "/playlist/update"
	EndpointPlaylistMove   = "/playlist/move"
)

// Options configures the client.
type Options struct {
	Timeout        time.Duration
	APIPrefix      string
	RateLimit      rate.Limit
	RateLimitBurst int
	// HTTPClient overrides the traced default client; used by tests.
	HTTPClient *http.Client
}

// Client talks to a single appliance. It does not retry: the status poll is
// the recovery mechanism.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewClient creates a client for the appliance at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid device base URL %q", baseURL)
	}

	opts = normalizeOptions(opts)
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewTracedClient(opts.Timeout, "boombox")
	}

	return &Client{
		baseURL: trimmed,
		prefix:  opts.APIPrefix,
		http:    hc,
		limiter: rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
		tracer:  telemetry.Tracer("boomctl.boombox"),
		logger:  log.WithComponent("boombox"),
	}, nil
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = defaultAPIPrefix
	}
	opts.APIPrefix = "/" + strings.Trim(opts.APIPrefix, "/")
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	return opts
}

// BaseURL returns the appliance base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Status fetches the authoritative status envelope.
func (c *Client) Status(ctx context.Context) (*StatusEnvelope, error) {
	var out StatusEnvelope
	if err := c.do(ctx, "status", http.MethodGet, EndpointStatus, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Config fetches the appliance configuration snapshot.
func (c *Client) Config(ctx context.Context) (*Config, error) {
	var out Config
	if err := c.do(ctx, "config", http.MethodGet, EndpointConfig, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendControl submits a control command.
func (c *Client) SendControl(ctx context.Context, req ControlRequest) (*Ack, error) {
	var out Ack
	attrs := telemetry.CommandAttributes(req.Control, req.Value, req.Mode)
	if err := c.do(ctx, "control", http.MethodPost, EndpointControl, req, &out, attrs...); err != nil {
		return nil, err
	}
	return &out, c.checkAck("control", &out)
}

// Playlist lists the stored stations in order.
func (c *Client) Playlist(ctx context.Context) (*Playlist, error) {
	var out Playlist
	if err := c.do(ctx, "playlist.list", http.MethodGet, EndpointPlaylist, nil, &out); err != nil {
		return nil, err
	}
	if out.Stations == nil {
		out.Stations = []Station{}
	}
	return &out, nil
}

// Select asks the appliance to play the station at index.
func (c *Client) Select(ctx context.Context, index int) (*Ack, error) {
	var out Ack
	if err := c.do(ctx, "playlist.select", http.MethodPost, EndpointPlaylistSelect, IndexRequest{Index: index}, &out); err != nil {
		return nil, err
	}
	return &out, c.checkAck("playlist.select", &out)
}

// AddStation appends a station.
func (c *Client) AddStation(ctx context.Context, title, streamURL string) error {
	return c.mutate(ctx, "playlist.add", EndpointPlaylistAdd, AddRequest{Title: title, URL: streamURL})
}

// DeleteStation removes the station at index.
func (c *Client) DeleteStation(ctx context.Context, index int) error {
	return c.mutate(ctx, "playlist.delete", EndpointPlaylistDelete, IndexRequest{Index: index})
}

// UpdateStation changes title and/or URL of the station at index. Empty
// values are not sent.
func (c *Client) UpdateStation(ctx context.Context, index int, title, streamURL string) error {
	return c.mutate(ctx, "playlist.update", EndpointPlaylistUpdate, UpdateRequest{Index: index, Title: title, URL: streamURL})
}

// MoveStation moves the station at from to position to.
func (c *Client) MoveStation(ctx context.Context, from, to int) error {
	return c.mutate(ctx, "playlist.move", EndpointPlaylistMove, MoveRequest{From: from, To: to}, telemetry.MoveAttributes(from, to)...)
}

func (c *Client) mutate(ctx context.Context, op, endpoint string, body any, attrs ...attribute.KeyValue) error {
	var out Ack
	if err := c.do(ctx, op, http.MethodPost, endpoint, body, &out, attrs...); err != nil {
		return err
	}
	return c.checkAck(op, &out)
}

func (c *Client) checkAck(op string, ack *Ack) error {
	if ack.Status != "" && !strings.EqualFold(ack.Status, "ok") {
		return &DeviceError{Sentinel: ErrRejected, Operation: op, Status: http.StatusOK, Body: ack.Message}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body, out any, attrs ...attribute.KeyValue) error {
	ctx, span := c.tracer.Start(ctx, "boombox."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(telemetry.DeviceAttributes(op, endpoint)...)
	span.SetAttributes(attrs...)

	status, err := c.roundTrip(ctx, op, method, endpoint, body, out)
	span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug().
			Err(err).
			Str(log.FieldEvent, "device.request_failed").
			Str("op", op).
			Int("status", status).
			Msg("device request failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, endpoint string, body, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &DeviceError{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("boombox: %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.prefix+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("boombox: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordRequestMetrics(method, endpoint, 0, time.Since(start), err)
		return 0, &DeviceError{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	recordRequestMetrics(method, endpoint, resp.StatusCode, time.Since(start), readErr)
	if readErr != nil {
		return resp.StatusCode, &DeviceError{Sentinel: ErrUnavailable, Operation: op, Status: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, classifyFailure(op, resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &DeviceError{Sentinel: ErrBadResponse, Operation: op, Status: resp.StatusCode, Err: err}
		}
	}
	return resp.StatusCode, nil
}

// classifyFailure maps a non-2xx reply. The firmware reports refused
// operations (bad index, full playlist) as 400 or 500 with an error body.
func classifyFailure(op string, status int, data []byte) error {
	var eb ErrorBody
	hasMessage := json.Unmarshal(data, &eb) == nil && eb.Error != ""

	de := &DeviceError{Operation: op, Status: status}
	if hasMessage {
		de.Body = eb.Error
	} else {
		de.Body = truncate(strings.TrimSpace(string(data)), maxErrorBodyBytes)
	}

	switch {
	case status == http.StatusNotFound:
		de.Sentinel = ErrNotFound
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		de.Sentinel = ErrUnavailable
	case status >= 500 && !hasMessage:
		de.Sentinel = ErrUnavailable
	default:
		de.Sentinel = ErrRejected
	}
	return de
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// IsUnavailable reports whether err is a transport-level failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
