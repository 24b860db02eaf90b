// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package devicesim simulates the boombox control API, including its quirks:
// the live web station index is reported one-based, station selection
// travels as a play-control value of index+100 and the playlist is kept as a
// PLS file.
package devicesim

import (
	"errors"
	"sync"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/freq"
)

// ErrQueueFull is returned while the simulated command queue refuses work.
var ErrQueueFull = errors.New("queue send failed")

var bandDefaults = map[freq.Band]struct {
	frequency int
	step      int
	unit      string
}{
	freq.BandLW: {frequency: 153, step: 9, unit: "kHz"},
	freq.BandMW: {frequency: 531, step: 9, unit: "kHz"},
	freq.BandSW: {frequency: 5900, step: 5, unit: "kHz"},
	freq.BandFM: {frequency: 8750, step: 10, unit: "MHz"},
}

// Command is one entry of the simulated control queue.
type Command struct {
	Mode    string
	Control int
	Value   int
}

// Device is the simulated appliance state.
type Device struct {
	mu sync.Mutex

	store     *Store
	queueFull bool

	mode      boombox.Mode
	hasUpdate bool
	last      boombox.LastCommand

	band       freq.Band
	frequency  int
	volume     int
	modulation int
	stepFM     int
	stepAM     int
	bwFM       int
	bwAM       int
	bwSSB      int
	agcGain    int
	agcOff     int
	presets    [8]int
	preset     int

	webIndex int // zero-based, -1 when nothing is selected
	playing  bool

	bluetooth boombox.BluetoothStatus
}

// NewDevice returns an appliance in Air mode tuned to 100,60 MHz.
func NewDevice(store *Store) *Device {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Device{
		store:     store,
		mode:      boombox.ModeAir,
		band:      freq.BandFM,
		frequency: 10060,
		volume:    12,
		stepFM:    1,
		stepAM:    1,
		presets:   [8]int{8750, 9420, 10060, 10470},
		webIndex:  -1,
		bluetooth: boombox.BluetoothStatus{Title: "Unknown"},
	}
}

// Store returns the playlist store.
func (d *Device) Store() *Store { return d.store }

// SetQueueFull makes every following command fail until cleared.
func (d *Device) SetQueueFull(full bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queueFull = full
}

// Enqueue accepts a command. Unknown modes and controls are accepted and
// ignored, as the firmware does.
func (d *Device) Enqueue(cmd Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queueFull {
		return ErrQueueFull
	}

	if m, ok := firmwareMode(cmd.Mode); ok {
		d.mode = m
	}
	d.apply(boombox.ControlCode(cmd.Control), cmd.Value)

	d.last = boombox.LastCommand{
		HasChanges: true,
		Mode:       string(d.mode),
		Control:    boombox.ControlCode(cmd.Control).String(),
		Value:      cmd.Value,
	}
	d.hasUpdate = true
	return nil
}

// firmwareMode matches mode names exactly, like the firmware's strcmp.
func firmwareMode(s string) (boombox.Mode, bool) {
	switch s {
	case "Air":
		return boombox.ModeAir, true
	case "Bluetooth", "BT":
		return boombox.ModeBluetooth, true
	case "Web":
		return boombox.ModeWeb, true
	}
	return "", false
}

func (d *Device) apply(control boombox.ControlCode, value int) {
	switch control {
	case boombox.ControlBand:
		b := freq.Band(value)
		if b.Valid() {
			d.band = b
			d.frequency = bandDefaults[b].frequency
		}
	case boombox.ControlModulation:
		d.modulation = value
	case boombox.ControlStepFM:
		d.stepFM = value
	case boombox.ControlStepAM:
		d.stepAM = value
	case boombox.ControlBandwidthFM:
		d.bwFM = value
	case boombox.ControlBandwidthAM:
		d.bwAM = value
	case boombox.ControlBandwidthSSB:
		d.bwSSB = value
	case boombox.ControlStepUp:
		d.frequency += bandDefaults[d.band].step
	case boombox.ControlStepDown:
		if next := d.frequency - bandDefaults[d.band].step; next > 0 {
			d.frequency = next
		}
	case boombox.ControlSeekUp:
		d.seekUp()
	case boombox.ControlStationStepUp:
		d.stepPreset(1)
	case boombox.ControlStationStepDown:
		d.stepPreset(-1)
	case boombox.ControlAGCGain:
		d.agcGain = value
	case boombox.ControlAGCSlider:
		if value > 0 {
			d.agcOff = 0
		} else {
			d.agcOff = 1
		}
	case boombox.ControlVolume:
		d.volume = max(0, min(100, value))
	case boombox.ControlSetFrequency:
		if value > 0 {
			d.frequency = value
		}
	case boombox.ControlPlay:
		d.play(value)
	}
}

func (d *Device) seekUp() {
	if d.band == freq.BandFM {
		for _, p := range d.presets {
			if p > d.frequency {
				d.frequency = p
				return
			}
		}
	}
	d.frequency += 2 * bandDefaults[d.band].step
}

func (d *Device) stepPreset(dir int) {
	var set []int
	for _, p := range d.presets {
		if p > 0 {
			set = append(set, p)
		}
	}
	if len(set) == 0 {
		return
	}
	d.preset = (d.preset + dir + len(set)) % len(set)
	d.band = freq.BandFM
	d.frequency = set[d.preset]
}

func (d *Device) play(value int) {
	n := d.store.Len()
	switch {
	case value >= boombox.SelectOffset:
		if idx := value - boombox.SelectOffset; idx < n {
			d.mode = boombox.ModeWeb
			d.webIndex = idx
			d.playing = true
		}
	case value == int(boombox.PlayStop), value == int(boombox.PlayPause):
		d.playing = false
	case value == int(boombox.PlayStart):
		d.playing = true
		if d.webIndex < 0 && n > 0 {
			d.webIndex = 0
		}
	case value == int(boombox.PlayNext) && n > 0:
		d.webIndex = (d.webIndex + 1) % n
		d.playing = true
	case value == int(boombox.PlayPrevious) && n > 0:
		d.webIndex = (max(d.webIndex, 0) - 1 + n) % n
		d.playing = true
	}
}

// Status renders the /status payload. Only the sub-status of the current
// mode is present.
func (d *Device) Status() boombox.StatusEnvelope {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur := boombox.CurrentStatus{HasUpdate: d.hasUpdate, Mode: string(d.mode)}
	switch d.mode {
	case boombox.ModeAir:
		cur.Air = d.airStatus()
	case boombox.ModeWeb:
		cur.Web = d.webStatus()
	case boombox.ModeBluetooth:
		bt := d.bluetooth
		cur.Bluetooth = &bt
	}
	return boombox.StatusEnvelope{LastCommand: d.last, CurrentStatus: cur}
}

func (d *Device) airStatus() *boombox.AirStatus {
	def := bandDefaults[d.band]
	a := &boombox.AirStatus{
		Band:         d.band.String(),
		StationIndex: d.preset,
		Frequency:    d.frequency,
		SNR:          18,
		RSSI:         34,
		Volume:       d.volume,
		FreqRange:    def.unit,
		StereoMono:   "Mono",
		Bandwidth:    "Auto",
		Step:         "10kHz",
	}
	if d.band == freq.BandFM {
		a.StereoMono = "Stereo"
		a.Step = "100kHz"
		a.RDS = "BOOMBOX"
	}
	return a
}

// webStatus reports the selected station one-based, 0 for none.
func (d *Device) webStatus() *boombox.WebStatus {
	w := &boombox.WebStatus{}
	if e, ok := d.store.Get(d.webIndex); ok {
		w.StationIndex = d.webIndex + 1
		w.Station = e.Title
		w.URI = e.URL
		if d.playing {
			w.Title = "Live"
		}
	}
	return w
}

// Config renders the /config payload.
func (d *Device) Config() boombox.Config {
	d.mu.Lock()
	defer d.mu.Unlock()

	stations := make([]int, 0, len(d.presets))
	for _, p := range d.presets {
		if p > 0 {
			stations = append(stations, p)
		}
	}
	agcEnabled := 0
	if d.agcOff == 0 {
		agcEnabled = 1
	}
	return boombox.Config{
		Mode:          string(d.mode),
		CurrentSource: sourceIndex(d.mode),
		Volume:        d.volume,
		AirConfig: boombox.AirConfig{
			BandType:         int(d.band),
			Modulation:       d.modulation,
			StepFM:           d.stepFM,
			StepAM:           d.stepAM,
			Frequency:        d.frequency,
			Volume:           d.volume,
			BandwidthFM:      d.bwFM,
			BandwidthAM:      d.bwAM,
			BandwidthSSB:     d.bwSSB,
			AGCGain:          d.agcGain,
			AGCEnabled:       agcEnabled,
			RSSIThreshold:    10,
			SNRThreshold:     5,
			FMStations:       stations,
			CurrentFMStation: d.preset,
		},
	}
}

func sourceIndex(m boombox.Mode) int {
	switch m {
	case boombox.ModeWeb:
		return 1
	case boombox.ModeBluetooth:
		return 2
	default:
		return 0
	}
}
