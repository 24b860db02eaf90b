// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/freq"
	"github.com/ManuGH/boomctl/internal/log"
)

// Normalize converts a device status envelope into canonical form. The live
// web station index is the only field corrected for the firmware's one-based
// reporting; air and playlist indices are passed through.
func Normalize(env *boombox.StatusEnvelope) (Status, *LastCommand) {
	if env == nil {
		return Status{}, nil
	}
	cur := env.CurrentStatus
	mode, ok := boombox.ParseMode(cur.Mode)
	if !ok {
		mode = boombox.Mode(cur.Mode)
	}

	st := Status{Mode: mode, HasUpdate: cur.HasUpdate}
	if a := cur.Air; a != nil {
		st.Air = &AirStatus{
			Band:          a.Band,
			Frequency:     a.Frequency,
			FrequencyText: freq.Decode(a.Frequency, a.Band, a.FreqRange),
			FreqRange:     a.FreqRange,
			RSSI:          a.RSSI,
			SNR:           a.SNR,
			Modulation:    a.StereoMono,
			StationIndex:  a.StationIndex,
			Volume:        a.Volume,
			Bandwidth:     a.Bandwidth,
			Step:          a.Step,
			RDS:           a.RDS,
		}
	}
	if w := cur.Web; w != nil {
		st.Web = &WebStatus{
			StationIndex: FromDevice(w.StationIndex),
			Station:      w.Station,
			URI:          w.URI,
			Title:        w.Title,
			Artist:       w.Artist,
			Album:        w.Album,
		}
	}
	if b := cur.Bluetooth; b != nil {
		st.Bluetooth = &BluetoothStatus{Title: b.Title, Artist: b.Artist, Album: b.Album}
	}

	lc := &LastCommand{
		HasChanges: env.LastCommand.HasChanges,
		Mode:       env.LastCommand.Mode,
		Control:    env.LastCommand.Control,
		Value:      env.LastCommand.Value,
	}
	return st, lc
}

// ModeMachine owns the status portion of the view: mode transitions,
// authoritative poll results and poll errors.
type ModeMachine struct {
	cell   *Cell
	logger zerolog.Logger
	now    func() time.Time
}

// NewModeMachine returns a mode machine writing to cell.
func NewModeMachine(cell *Cell) *ModeMachine {
	return &ModeMachine{
		cell:   cell,
		logger: log.WithComponent("mode"),
		now:    time.Now,
	}
}

// Mode returns the currently displayed mode, empty before the first poll.
func (m *ModeMachine) Mode() boombox.Mode {
	return m.cell.Snapshot().Status.Mode
}

// Switch clears every sub-status and shows target immediately. It does not
// talk to the device.
func (m *ModeMachine) Switch(target boombox.Mode) View {
	var from boombox.Mode
	v := m.cell.Apply(func(v *View) {
		from = v.Status.Mode
		v.Status = Status{Mode: target}
	}, SourceCommand)

	m.logger.Info().
		Str(log.FieldEvent, "mode.switched").
		Str(log.FieldOldMode, string(from)).
		Str(log.FieldNewMode, string(target)).
		Msg("mode switched locally")
	return v
}

// Publish replaces the status wholesale with an authoritative snapshot.
func (m *ModeMachine) Publish(status Status, last *LastCommand) View {
	at := m.now()
	return m.cell.Apply(func(v *View) {
		v.Status = status
		v.LastCommand = last
		v.LastError = ""
		v.LastErrorAt = nil
		v.LastPollAt = &at
		v.PollFailures = 0

		if status.Web != nil {
			v.ActiveIndex = status.Web.StationIndex
		}
		if !v.BandDerived {
			if status.Air != nil {
				v.SelectedBand, _ = freq.ParseBand(status.Air.Band)
			}
			v.BandDerived = true
		}
	}, SourcePoll)
}

// PublishError records a failed poll and leaves the snapshot untouched.
func (m *ModeMachine) PublishError(err error) View {
	at := m.now()
	msg := boombox.Message(err)
	return m.cell.Apply(func(v *View) {
		v.LastError = msg
		v.LastErrorAt = &at
		v.PollFailures++
	}, SourcePoll)
}
