// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package reconcile keeps a local view of the appliance consistent with the
// device. Commands are applied optimistically and corrected by a status poll
// on a fixed cadence plus one settle poll after every successful command.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/freq"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/metrics"
)

// Defaults for Options.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultSettleDelay  = 300 * time.Millisecond
)

// Device is everything the reconciler needs from the appliance client.
type Device interface {
	StatusFetcher
	ControlSender
	PlaylistStore
	Config(ctx context.Context) (*boombox.Config, error)
}

// Options tunes the timers. Zero values use the defaults.
type Options struct {
	PollInterval time.Duration
	SettleDelay  time.Duration
}

// Reconciler ties the poller, dispatcher and playlist manager to one state
// cell and one scheduler.
type Reconciler struct {
	device     Device
	opts       Options
	cell       *Cell
	sched      *Scheduler
	modes      *ModeMachine
	poller     *Poller
	dispatcher *Dispatcher
	playlist   *PlaylistManager
	logger     zerolog.Logger
}

// New builds a stopped reconciler.
func New(device Device, opts Options) *Reconciler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	} else if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	r := &Reconciler{
		device: device,
		opts:   opts,
		cell:   NewCell(),
		sched:  NewScheduler(),
		logger: log.WithComponent("reconciler"),
	}
	r.modes = NewModeMachine(r.cell)
	r.poller = NewPoller(device, r.modes)
	settlePoll := r.poller.tick(TriggerSettle)
	r.dispatcher = NewDispatcher(device, r.cell, r.modes, r.sched, opts.SettleDelay, settlePoll)
	r.playlist = NewPlaylistManager(device, r.cell, r.sched, opts.SettleDelay, settlePoll)
	r.cell.OnApply(r.observe)
	return r
}

// observe reacts to mode transitions: it keeps the mode gauge current and
// loads the playlist the first time web mode shows up with nothing mirrored.
func (r *Reconciler) observe(before, after *View, _ Source) {
	if before.Status.Mode == after.Status.Mode {
		return
	}
	metrics.SetMode(string(after.Status.Mode))
	if after.Status.Mode == boombox.ModeWeb && len(after.Playlist) == 0 {
		r.playlist.LoadIfEmpty()
	}
}

// Start begins polling. The first poll runs immediately.
func (r *Reconciler) Start(ctx context.Context) error {
	if err := r.sched.Start(ctx); err != nil {
		return err
	}
	r.sched.Every(r.opts.PollInterval, r.poller.tick(TriggerInterval))
	r.logger.Info().
		Str(log.FieldEvent, "reconciler.started").
		Dur("poll_interval", r.opts.PollInterval).
		Dur("settle_delay", r.opts.SettleDelay).
		Msg("reconciler started")
	return nil
}

// Stop cancels the poll loop and every pending settle timer and waits for
// in-flight work to return.
func (r *Reconciler) Stop() {
	r.sched.Stop()
	r.logger.Info().Str(log.FieldEvent, "reconciler.stopped").Msg("reconciler stopped")
}

// Run starts the reconciler and blocks until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	r.Stop()
	return nil
}

// State returns a copy of the current view.
func (r *Reconciler) State() View { return r.cell.Snapshot() }

// Subscribe streams views; see Cell.Subscribe.
func (r *Reconciler) Subscribe() (<-chan View, func()) { return r.cell.Subscribe() }

// Options returns the effective timer settings.
func (r *Reconciler) Options() Options { return r.opts }

// Refresh polls immediately, outside the interval.
func (r *Reconciler) Refresh(ctx context.Context) error {
	if !r.sched.Running() {
		return ErrNotRunning
	}
	return r.poller.Poll(ctx, TriggerManual)
}

// Send dispatches an arbitrary command.
func (r *Reconciler) Send(ctx context.Context, cmd Command) error {
	return r.dispatcher.Send(ctx, cmd)
}

// SwitchMode clears the local status and asks the device to change mode.
func (r *Reconciler) SwitchMode(ctx context.Context, mode boombox.Mode) error {
	return r.Send(ctx, ModeSwitch{Mode: mode})
}

// SetBand selects a tuner band. The highlighted band changes locally at once.
func (r *Reconciler) SetBand(ctx context.Context, band freq.Band) error {
	if !band.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidBand, int(band))
	}
	r.cell.Apply(func(v *View) { v.SelectedBand = band }, SourceUser)
	return r.Send(ctx, ValueCommand{Control: boombox.ControlBand, Value: int(band)})
}

// SetFrequency parses display using the live band (or the highlighted band
// when no air status is known) and tunes to it.
func (r *Reconciler) SetFrequency(ctx context.Context, display string) error {
	v := r.cell.Snapshot()
	band, unit := v.SelectedBand.String(), ""
	if v.Status.Air != nil {
		band, unit = v.Status.Air.Band, v.Status.Air.FreqRange
	}
	value, err := freq.Encode(display, band, unit)
	if err != nil {
		return fmt.Errorf("%w: %q", err, display)
	}
	return r.Send(ctx, ValueCommand{Control: boombox.ControlSetFrequency, Value: value})
}

// Seek searches for the next station. The firmware has no seek-down control;
// down is sent as a station step.
func (r *Reconciler) Seek(ctx context.Context, up bool) error {
	control := boombox.ControlSeekUp
	if !up {
		control = boombox.ControlStationStepUp
	}
	return r.Send(ctx, ValueCommand{Control: control, Value: 1})
}

// StationStep moves to the next or previous preset.
func (r *Reconciler) StationStep(ctx context.Context, up bool) error {
	control := boombox.ControlStationStepUp
	if !up {
		control = boombox.ControlStationStepDown
	}
	return r.Send(ctx, ValueCommand{Control: control, Value: 1})
}

// SetVolume sets the volume (0-100). A non-empty mode also switches mode.
func (r *Reconciler) SetVolume(ctx context.Context, volume int, mode boombox.Mode) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidVolume, volume)
	}
	return r.Send(ctx, ValueCommand{Control: boombox.ControlVolume, Value: volume, Mode: mode})
}

// Play sends a transport action.
func (r *Reconciler) Play(ctx context.Context, action boombox.PlayAction) error {
	if action < boombox.PlayStop || action > boombox.PlayNext {
		return fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	return r.Send(ctx, ValueCommand{Control: boombox.ControlPlay, Value: int(action)})
}

// DeviceConfig fetches the appliance configuration. It does not touch state.
func (r *Reconciler) DeviceConfig(ctx context.Context) (*boombox.Config, error) {
	return r.device.Config(ctx)
}

// Playlist exposes the playlist manager.
func (r *Reconciler) Playlist() *PlaylistManager { return r.playlist }

// ClearError dismisses the current error message.
func (r *Reconciler) ClearError() {
	r.cell.Apply(func(v *View) {
		v.LastError = ""
		v.LastErrorAt = nil
	}, SourceUser)
}

// LastPollSuccess returns the time of the last successful poll, zero if none.
func (r *Reconciler) LastPollSuccess() time.Time {
	if t := r.cell.Snapshot().LastPollAt; t != nil {
		return *t
	}
	return time.Time{}
}
