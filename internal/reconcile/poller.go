// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/metrics"
)

// Poll triggers.
const (
	TriggerInterval = "interval"
	TriggerSettle   = "settle"
	TriggerManual   = "manual"
)

// StatusFetcher is the part of the device client the poller needs.
type StatusFetcher interface {
	Status(ctx context.Context) (*boombox.StatusEnvelope, error)
}

// Poller reads the authoritative status and publishes it. A failed poll keeps
// the previous snapshot; the interval loop never stops on errors.
type Poller struct {
	device StatusFetcher
	modes  *ModeMachine
	logger zerolog.Logger
}

// NewPoller returns a poller publishing to modes.
func NewPoller(device StatusFetcher, modes *ModeMachine) *Poller {
	return &Poller{
		device: device,
		modes:  modes,
		logger: log.WithComponent("poller"),
	}
}

// Poll performs one fetch-normalize-publish cycle.
func (p *Poller) Poll(ctx context.Context, trigger string) error {
	start := time.Now()
	env, err := p.device.Status(ctx)
	metrics.RecordPoll(trigger, time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			// torn down mid-request
			return err
		}
		p.modes.PublishError(err)
		p.logger.Warn().
			Err(err).
			Str(log.FieldEvent, "poll.failed").
			Str("trigger", trigger).
			Msg("status poll failed, keeping previous snapshot")
		return err
	}

	status, last := Normalize(env)
	p.modes.Publish(status, last)
	p.logger.Debug().
		Str(log.FieldEvent, "poll.ok").
		Str("trigger", trigger).
		Str(log.FieldMode, string(status.Mode)).
		Dur("duration", time.Since(start)).
		Msg("status poll published")
	return nil
}

// tick adapts Poll for the scheduler.
func (p *Poller) tick(trigger string) func(context.Context) {
	return func(ctx context.Context) {
		_ = p.Poll(ctx, trigger)
	}
}
