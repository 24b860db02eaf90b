// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"errors"

	"github.com/ManuGH/boomctl/internal/freq"
)

// Validation errors are returned before any device request is made.
var (
	ErrInvalidFrequency = freq.ErrInvalidFrequency
	ErrInvalidIndex     = errors.New("invalid station index")
	ErrEmptyURL         = errors.New("station url is required")
	ErrInvalidCommand   = errors.New("invalid control command")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidBand      = errors.New("invalid band")
	ErrInvalidAction    = errors.New("invalid play action")
	ErrInvalidVolume    = errors.New("invalid volume")
)

// Lifecycle errors.
var (
	ErrNotRunning     = errors.New("reconciler is not running")
	ErrAlreadyRunning = errors.New("reconciler is already running")
)

// IsValidation reports whether err was produced by input validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidFrequency, ErrInvalidIndex, ErrEmptyURL, ErrInvalidCommand,
		ErrInvalidMode, ErrInvalidBand, ErrInvalidAction, ErrInvalidVolume,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
