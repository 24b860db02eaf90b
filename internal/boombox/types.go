// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package boombox is the HTTP client for the appliance control API.
//
// Types in this package mirror the firmware's wire conventions: frequencies
// are integers, the live web station index is one-based and modes are the
// firmware's spelling. Normalization happens in the reconcile package.
package boombox

import "strings"

// Mode is the appliance operating mode.
type Mode string

const (
	ModeAir       Mode = "Air"
	ModeBluetooth Mode = "Bluetooth"
	ModeWeb       Mode = "Web"
)

// ParseMode accepts the firmware spellings, including the "BT" alias, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "air":
		return ModeAir, true
	case "bluetooth", "bt":
		return ModeBluetooth, true
	case "web":
		return ModeWeb, true
	}
	return "", false
}

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	return m == ModeAir || m == ModeBluetooth || m == ModeWeb
}

// ControlCode addresses one appliance parameter.
type ControlCode int

const (
	ControlNone            ControlCode = 0
	ControlBand            ControlCode = 1
	ControlModulation      ControlCode = 2
	ControlStepFM          ControlCode = 3
	ControlStepAM          ControlCode = 4
	ControlBandwidthFM     ControlCode = 5
	ControlBandwidthAM     ControlCode = 6
	ControlBandwidthSSB    ControlCode = 7
	ControlStepUp          ControlCode = 8
	ControlStepDown        ControlCode = 9
	ControlSeekUp          ControlCode = 10
	ControlStationStepUp   ControlCode = 11
	ControlStationStepDown ControlCode = 12
	ControlAGCGain         ControlCode = 13
	ControlAGCSlider       ControlCode = 14
	ControlVolume          ControlCode = 15
	ControlSetFrequency    ControlCode = 16
	ControlPlay            ControlCode = 17
)

var controlNames = map[ControlCode]string{
	ControlBand:            "BandIndex",
	ControlModulation:      "ModulationIndex",
	ControlStepFM:          "StepFM",
	ControlStepAM:          "StepAM",
	ControlBandwidthFM:     "BandwidthFM",
	ControlBandwidthAM:     "BandwidthAM",
	ControlBandwidthSSB:    "BandwidthSSB",
	ControlStepUp:          "StepUp",
	ControlStepDown:        "StepDown",
	ControlSeekUp:          "SeekUp",
	ControlStationStepUp:   "StationStepUp",
	ControlStationStepDown: "StationStepDown",
	ControlAGCGain:         "AGCGain",
	ControlAGCSlider:       "SliderAGC",
	ControlVolume:          "Volume",
	ControlSetFrequency:    "SetFrequency",
	ControlPlay:            "PlayControl",
}

// String returns the firmware name of the code, as echoed in lastCommand.
func (c ControlCode) String() string {
	if n, ok := controlNames[c]; ok {
		return n
	}
	return "Unknown"
}

// Valid reports whether c is within the closed 1..17 range.
func (c ControlCode) Valid() bool {
	return c >= ControlBand && c <= ControlPlay
}

// PlayAction values for ControlPlay.
type PlayAction int

const (
	PlayStop PlayAction = iota
	PlayStart
	PlayPause
	PlayPrevious
	PlayNext
)

// SelectOffset is added to a playlist index when selection is expressed as
// a ControlPlay value.
const SelectOffset = 100

var playActionNames = map[string]PlayAction{
	"stop":     PlayStop,
	"play":     PlayStart,
	"pause":    PlayPause,
	"previous": PlayPrevious,
	"prev":     PlayPrevious,
	"next":     PlayNext,
}

// ParsePlayAction maps an action name to its value.
func ParsePlayAction(s string) (PlayAction, bool) {
	a, ok := playActionNames[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// StatusEnvelope is the GET /status response.
type StatusEnvelope struct {
	LastCommand   LastCommand   `json:"lastCommand"`
	CurrentStatus CurrentStatus `json:"currentStatus"`
}

// LastCommand echoes the last control command the appliance received.
type LastCommand struct {
	HasChanges bool   `json:"hasChanges"`
	Mode       string `json:"mode"`
	Control    string `json:"control"`
	Value      int    `json:"value"`
}

// CurrentStatus is the appliance player state. Only the sub-status for Mode is present.
type CurrentStatus struct {
	HasUpdate bool             `json:"hasUpdate"`
	Mode      string           `json:"mode"`
	Air       *AirStatus       `json:"air,omitempty"`
	Web       *WebStatus       `json:"web,omitempty"`
	Bluetooth *BluetoothStatus `json:"bluetooth,omitempty"`
}

// AirStatus is the radio tuner state.
type AirStatus struct {
	Band         string `json:"band,omitempty"`
	StationIndex int    `json:"stationIndex"`
	Frequency    int    `json:"frequency"`
	SNR          int    `json:"snr"`
	RSSI         int    `json:"rssi"`
	Volume       int    `json:"volume"`
	FreqRange    string `json:"freqRange,omitempty"`
	StereoMono   string `json:"stereoMono,omitempty"`
	Bandwidth    string `json:"bandwidth,omitempty"`
	Step         string `json:"step,omitempty"`
	RDS          string `json:"rds,omitempty"`
}

// WebStatus is the internet radio state. StationIndex is one-based on the wire.
type WebStatus struct {
	URI          string `json:"uri,omitempty"`
	Station      string `json:"station,omitempty"`
	StationIndex int    `json:"stationIndex"`
	Title        string `json:"title,omitempty"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
}

// BluetoothStatus carries now-playing metadata.
type BluetoothStatus struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// Config is the GET /config response.
type Config struct {
	Mode          string    `json:"mode"`
	CurrentSource int       `json:"currentSource"`
	Volume        int       `json:"volume"`
	AirConfig     AirConfig `json:"airConfig"`
}

// AirConfig is the persisted tuner configuration.
type AirConfig struct {
	BandType         int   `json:"bandType"`
	Modulation       int   `json:"modulation"`
	StepFM           int   `json:"stepFM"`
	StepAM           int   `json:"stepAM"`
	Frequency        int   `json:"frequency"`
	Volume           int   `json:"volume"`
	BandwidthFM      int   `json:"bandwidthFM"`
	BandwidthAM      int   `json:"bandwidthAM"`
	BandwidthSSB     int   `json:"bandwidthSSB"`
	AGCGain          int   `json:"agcGain"`
	AGCEnabled       int   `json:"agcEnabled"`
	RSSIThreshold    int   `json:"rssiThreshold"`
	SNRThreshold     int   `json:"snrThreshold"`
	FMStations       []int `json:"fmStations"`
	CurrentFMStation int   `json:"currentFMStation"`
}

// ControlRequest is the POST /control body.
type ControlRequest struct {
	Control int    `json:"control"`
	Value   int    `json:"value"`
	Mode    string `json:"mode,omitempty"`
}

// Ack is the common mutation response.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Index   *int   `json:"index,omitempty"`
	From    *int   `json:"from,omitempty"`
	To      *int   `json:"to,omitempty"`
}

// Playlist is the GET /playlist response.
type Playlist struct {
	Count    int       `json:"count"`
	Stations []Station `json:"stations"`
}

// Station is a playlist entry. Index is zero-based.
type Station struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// IndexRequest is the body of select and delete.
type IndexRequest struct {
	Index int `json:"index"`
}

// AddRequest is the POST /playlist/add body.
type AddRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// UpdateRequest is the POST /playlist/update body. Empty fields are left unchanged.
type UpdateRequest struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// MoveRequest is the POST /playlist/move body.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ErrorBody is the non-2xx response body.
type ErrorBody struct {
	Error string `json:"error"`
}
