package boombox

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnavailable = errors.New("boombox: unreachable or transport failure")
	ErrBadResponse = errors.New("boombox: invalid response format")
	ErrRejected    = errors.New("boombox: request rejected")
	ErrNotFound    = errors.New("boombox: endpoint not found")
)

// DeviceError wraps a sentinel with the failing operation and device reply.
type DeviceError struct {
	Sentinel  error
	Operation string
	Status    int
	// Body is the device's error message, or a trimmed raw body.
	Body string
	Err  error
}

func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("boombox: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DeviceError) Unwrap() error {
	return e.Sentinel
}

// Message returns the most user-presentable description of err: the device's
// own error text when there is one, else err.Error().
func Message(err error) string {
	var de *DeviceError
	if errors.As(err, &de) && de.Body != "" {
		return de.Body
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
