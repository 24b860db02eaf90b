// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/metrics"
)

// ControlSender is the part of the device client the dispatcher needs.
type ControlSender interface {
	SendControl(ctx context.Context, req boombox.ControlRequest) (*boombox.Ack, error)
}

// Dispatcher sends control commands and schedules the settle poll that reads
// the result back. Commands are not serialized against each other.
type Dispatcher struct {
	device ControlSender
	cell   *Cell
	modes  *ModeMachine
	sched  *Scheduler
	settle time.Duration
	reread func(ctx context.Context)
	logger zerolog.Logger
}

// NewDispatcher wires a dispatcher. reread is invoked once per successful
// command after the settle delay.
func NewDispatcher(device ControlSender, cell *Cell, modes *ModeMachine, sched *Scheduler, settle time.Duration, reread func(context.Context)) *Dispatcher {
	return &Dispatcher{
		device: device,
		cell:   cell,
		modes:  modes,
		sched:  sched,
		settle: settle,
		reread: reread,
		logger: log.WithComponent("dispatcher"),
	}
}

// Send validates cmd, applies the optimistic mode clear when the command
// changes mode, and submits it. A failure is recorded as the current error;
// the optimistic clear is not rolled back.
func (d *Dispatcher) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if !d.sched.Running() {
		return ErrNotRunning
	}

	if target, ok := cmd.TargetMode(); ok {
		if _, pure := cmd.(ModeSwitch); pure || d.modes.Mode() != target {
			d.modes.Switch(target)
		}
	}

	req := ToWire(cmd)
	ctx = log.ContextWithCommandID(ctx, uuid.NewString())
	logger := log.WithContext(ctx, d.logger).With().
		Str(log.FieldControl, boombox.ControlCode(req.Control).String()).
		Int(log.FieldValue, req.Value).
		Str(log.FieldMode, req.Mode).
		Logger()

	done := metrics.CommandStarted()
	d.cell.Apply(func(v *View) { v.CommandsInFlight++ }, SourceCommand)

	ack, err := d.device.SendControl(ctx, req)

	done()
	metrics.RecordCommand(cmd.Kind(), err)
	d.finish(err)

	if err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "command.failed").Msg("control command failed")
		return err
	}

	ev := logger.Debug().Str(log.FieldEvent, "command.sent")
	if ack != nil {
		ev = ev.Str("ack", ack.Message)
	}
	ev.Msg("control command acknowledged")
	d.scheduleSettle()
	return nil
}

// finish releases the busy count and records err, if any, in one transition.
func (d *Dispatcher) finish(err error) {
	var msg string
	if err != nil {
		msg = boombox.Message(err)
	}
	now := time.Now()
	d.cell.Apply(func(v *View) {
		if v.CommandsInFlight > 0 {
			v.CommandsInFlight--
		}
		if msg != "" {
			v.LastError = msg
			v.LastErrorAt = &now
		}
	}, SourceCommand)
}

func (d *Dispatcher) scheduleSettle() {
	if d.reread == nil {
		return
	}
	if !d.sched.After(d.settle, d.reread) {
		d.logger.Debug().Str(log.FieldEvent, "settle.skipped").Msg("scheduler stopped, settle poll not scheduled")
	}
}
