// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/reconcile"
)

const maxRequestBytes = 16 << 10

// Error codes in API error bodies.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeDeviceRejected    = "DEVICE_REJECTED"
	CodeDeviceBadReply    = "DEVICE_BAD_RESPONSE"
	CodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	CodeNotRunning        = "NOT_RUNNING"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

var errInvalidJSON = errors.New("invalid JSON body")

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an error to its HTTP status and code. The device's own
// message is what the caller sees for device refusals.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidJSON), reconcile.IsValidation(err):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, reconcile.ErrNotRunning):
		return http.StatusServiceUnavailable, CodeNotRunning
	case errors.Is(err, boombox.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeDeviceUnavailable
	case errors.Is(err, boombox.ErrRejected), errors.Is(err, boombox.ErrNotFound):
		return http.StatusBadGateway, CodeDeviceRejected
	case errors.Is(err, boombox.ErrBadResponse):
		return http.StatusBadGateway, CodeDeviceBadReply
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError writes err with the status classify picks for it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.request_failed").
			Str("code", code).
			Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{
		Error:     boombox.Message(err),
		Code:      code,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}

// required reports a missing integer field as a validation error.
func required(v *int, name string, sentinel error) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %q", sentinel, name)
	}
	return *v, nil
}
