// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/metrics"
)

// PlaylistStore is the part of the device client the playlist manager needs.
type PlaylistStore interface {
	Playlist(ctx context.Context) (*boombox.Playlist, error)
	Select(ctx context.Context, index int) (*boombox.Ack, error)
	AddStation(ctx context.Context, title, streamURL string) error
	DeleteStation(ctx context.Context, index int) error
	UpdateStation(ctx context.Context, index int, title, streamURL string) error
	MoveStation(ctx context.Context, from, to int) error
}

// PlaylistManager mirrors the device playlist. The device owns the order;
// every mutation except Select is followed by a full re-list.
type PlaylistManager struct {
	device  PlaylistStore
	cell    *Cell
	sched   *Scheduler
	settle  time.Duration
	reread  func(context.Context)
	loading atomic.Bool
	logger  zerolog.Logger
}

// NewPlaylistManager wires a playlist manager. reread is the settle poll
// scheduled after a selection.
func NewPlaylistManager(device PlaylistStore, cell *Cell, sched *Scheduler, settle time.Duration, reread func(context.Context)) *PlaylistManager {
	return &PlaylistManager{
		device: device,
		cell:   cell,
		sched:  sched,
		settle: settle,
		reread: reread,
		logger: log.WithComponent("playlist"),
	}
}

// Load fetches the playlist and replaces the local mirror.
func (m *PlaylistManager) Load(ctx context.Context) ([]Station, error) {
	m.begin()
	stations, err := m.list(ctx)
	m.end(err)
	metrics.RecordPlaylistOp("list", err)
	if err != nil {
		return nil, err
	}
	return stations, nil
}

// Select asks the device to play index. The index is marked active locally
// before the device answers; the settle poll corrects a wrong guess.
func (m *PlaylistManager) Select(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if !m.sched.Running() {
		return ErrNotRunning
	}

	prevActive, prevWeb := -1, -1
	m.cell.Apply(func(v *View) {
		prevActive = v.ActiveIndex
		v.ActiveIndex = index
		if v.Status.Web != nil {
			prevWeb = v.Status.Web.StationIndex
			v.Status.Web.StationIndex = index
		}
		v.CommandsInFlight++
	}, SourcePlaylist)
	done := metrics.CommandStarted()

	_, err := m.device.Select(ctx, index)

	done()
	metrics.RecordPlaylistOp("select", err)
	m.settleBusy(err, func(v *View) {
		// a poll may have landed meanwhile; only undo our own guess
		if v.ActiveIndex == index {
			v.ActiveIndex = prevActive
		}
		if v.Status.Web != nil && prevWeb >= 0 && v.Status.Web.StationIndex == index {
			v.Status.Web.StationIndex = prevWeb
		}
	})
	if m.reread != nil {
		m.sched.After(m.settle, m.reread)
	}
	if err != nil {
		m.logger.Warn().Err(err).Str(log.FieldEvent, "playlist.select_failed").Int(log.FieldIndex, index).Msg("station select failed")
		return err
	}

	m.logger.Info().Str(log.FieldEvent, "playlist.selected").Int(log.FieldIndex, index).Msg("station selected")
	return nil
}

// Add appends a station. The title defaults to the URL.
func (m *PlaylistManager) Add(ctx context.Context, title, streamURL string) error {
	streamURL = strings.TrimSpace(streamURL)
	if streamURL == "" {
		return ErrEmptyURL
	}
	title = norm.NFC.String(strings.TrimSpace(title))
	if title == "" {
		title = streamURL
	}
	return m.mutate(ctx, "add", func(ctx context.Context) error {
		return m.device.AddStation(ctx, title, streamURL)
	})
}

// Delete removes the station at index.
func (m *PlaylistManager) Delete(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return m.mutate(ctx, "delete", func(ctx context.Context) error {
		return m.device.DeleteStation(ctx, index)
	})
}

// Update changes title and/or URL of a station. Empty values are left unchanged.
func (m *PlaylistManager) Update(ctx context.Context, index int, title, streamURL string) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	title = norm.NFC.String(strings.TrimSpace(title))
	streamURL = strings.TrimSpace(streamURL)
	return m.mutate(ctx, "update", func(ctx context.Context) error {
		return m.device.UpdateStation(ctx, index, title, streamURL)
	})
}

// Move reorders a station. Moving onto itself does not reach the device.
func (m *PlaylistManager) Move(ctx context.Context, from, to int) error {
	if from < 0 || to < 0 {
		return fmt.Errorf("%w: move %d -> %d", ErrInvalidIndex, from, to)
	}
	if from == to {
		return nil
	}
	return m.mutate(ctx, "move", func(ctx context.Context) error {
		return m.device.MoveStation(ctx, from, to)
	})
}

// MoveUp moves index one position towards the top, clamped at 0.
func (m *PlaylistManager) MoveUp(ctx context.Context, index int) error {
	return m.Move(ctx, index, max(0, index-1))
}

// MoveDown moves index one position towards the bottom. The last locally
// known station, or any index when nothing is mirrored, stays where it is.
func (m *PlaylistManager) MoveDown(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	last := len(m.cell.Snapshot().Playlist) - 1
	if index >= last {
		return nil
	}
	return m.Move(ctx, index, index+1)
}

// LoadIfEmpty starts a background load when nothing is mirrored yet and no
// load is running.
func (m *PlaylistManager) LoadIfEmpty() bool {
	if len(m.cell.Snapshot().Playlist) > 0 || !m.loading.CompareAndSwap(false, true) {
		return false
	}
	started := m.sched.Go(func(ctx context.Context) {
		defer m.loading.Store(false)
		if _, err := m.Load(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn().Err(err).Str(log.FieldEvent, "playlist.lazy_load_failed").Msg("lazy playlist load failed")
		}
	})
	if !started {
		m.loading.Store(false)
	}
	return started
}

func (m *PlaylistManager) mutate(ctx context.Context, op string, call func(context.Context) error) error {
	m.begin()
	err := call(ctx)
	metrics.RecordPlaylistOp(op, err)
	if err != nil {
		m.end(err)
		m.logger.Warn().Err(err).Str(log.FieldEvent, "playlist."+op+"_failed").Msg("playlist operation failed")
		return err
	}

	_, err = m.list(ctx)
	m.end(err)
	if err != nil {
		return fmt.Errorf("reload playlist after %s: %w", op, err)
	}
	return nil
}

func (m *PlaylistManager) list(ctx context.Context) ([]Station, error) {
	pl, err := m.device.Playlist(ctx)
	if err != nil {
		return nil, err
	}
	stations := append(make([]Station, 0, len(pl.Stations)), pl.Stations...)
	m.cell.Apply(func(v *View) {
		v.Playlist = stations
		v.PlaylistLoaded = true
	}, SourcePlaylist)
	metrics.SetPlaylistSize(len(stations))

	m.logger.Debug().
		Str(log.FieldEvent, "playlist.reloaded").
		Int(log.FieldStations, len(stations)).
		Msg("playlist reloaded")
	return append([]Station(nil), stations...), nil
}

func (m *PlaylistManager) begin() {
	m.cell.Apply(func(v *View) { v.PlaylistOps++ }, SourcePlaylist)
}

func (m *PlaylistManager) end(err error) {
	now := time.Now()
	m.cell.Apply(func(v *View) {
		if v.PlaylistOps > 0 {
			v.PlaylistOps--
		}
		if err != nil {
			v.LastError = boombox.Message(err)
			v.LastErrorAt = &now
		}
	}, SourcePlaylist)
}

func (m *PlaylistManager) settleBusy(err error, undo func(*View)) {
	now := time.Now()
	m.cell.Apply(func(v *View) {
		if v.CommandsInFlight > 0 {
			v.CommandsInFlight--
		}
		if err != nil {
			v.LastError = boombox.Message(err)
			v.LastErrorAt = &now
			if undo != nil {
				undo(v)
			}
		}
	}, SourcePlaylist)
}
