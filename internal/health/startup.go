// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/boomctl/internal/log"
)

// ProbeTimeout bounds the startup device probe.
const ProbeTimeout = 3 * time.Second

// ProbeFunc performs one cheap round trip against the device.
type ProbeFunc func(ctx context.Context) error

// PerformStartupChecks probes the device once before the daemon starts
// serving. A failure is returned to the caller; the poll loop recovers on its
// own, so callers usually only warn.
func PerformStartupChecks(ctx context.Context, deviceURL string, probe ProbeFunc) error {
	logger := log.WithComponent("startup-check")
	logger.Info().
		Str(log.FieldEvent, "startup.check_start").
		Str("device", deviceURL).
		Msg("running pre-flight startup checks")

	probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	start := time.Now()
	if err := probe(probeCtx); err != nil {
		return fmt.Errorf("device %s unreachable: %w", deviceURL, err)
	}

	logger.Info().
		Str(log.FieldEvent, "startup.check_passed").
		Dur("duration", time.Since(start)).
		Msg("device reachable")
	return nil
}
