// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"sync"
	"time"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/freq"
)

// Source identifies who produced a state patch.
type Source string

const (
	SourcePoll     Source = "poll"
	SourceCommand  Source = "command"
	SourcePlaylist Source = "playlist"
	SourceUser     Source = "user"
)

// Status is the canonical appliance status. Exactly one sub-status matches Mode.
type Status struct {
	Mode      boombox.Mode     `json:"mode,omitempty"`
	HasUpdate bool             `json:"hasUpdate"`
	Air       *AirStatus       `json:"air,omitempty"`
	Web       *WebStatus       `json:"web,omitempty"`
	Bluetooth *BluetoothStatus `json:"bluetooth,omitempty"`
}

// AirStatus is the tuner state with the frequency both raw and for display.
type AirStatus struct {
	Band          string `json:"band"`
	Frequency     int    `json:"frequency"`
	FrequencyText string `json:"frequencyText"`
	FreqRange     string `json:"freqRange,omitempty"`
	RSSI          int    `json:"rssi"`
	SNR           int    `json:"snr"`
	Modulation    string `json:"modulation,omitempty"`
	StationIndex  int    `json:"stationIndex"`
	Volume        int    `json:"volume"`
	Bandwidth     string `json:"bandwidth,omitempty"`
	Step          string `json:"step,omitempty"`
	RDS           string `json:"rds,omitempty"`
}

// WebStatus is the internet radio state. StationIndex is canonical (zero-based).
type WebStatus struct {
	StationIndex int    `json:"stationIndex"`
	Station      string `json:"station,omitempty"`
	URI          string `json:"uri,omitempty"`
	Title        string `json:"title,omitempty"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
}

// BluetoothStatus carries now-playing metadata only.
type BluetoothStatus struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// LastCommand is the appliance's echo of the last control it received.
type LastCommand struct {
	HasChanges bool   `json:"hasChanges"`
	Mode       string `json:"mode"`
	Control    string `json:"control"`
	Value      int    `json:"value"`
}

// Station is a playlist entry in canonical index space.
type Station = boombox.Station

// View is everything the presentation layer needs, copied out of the cell.
type View struct {
	Version   uint64 `json:"version"`
	UpdatedBy Source `json:"updatedBy,omitempty"`

	Status      Status       `json:"status"`
	LastCommand *LastCommand `json:"lastCommand,omitempty"`

	// ActiveIndex is the highlighted station; -1 when none is known.
	ActiveIndex    int       `json:"activeIndex"`
	Playlist       []Station `json:"playlist"`
	PlaylistLoaded bool      `json:"playlistLoaded"`

	SelectedBand freq.Band `json:"selectedBand"`
	BandDerived  bool      `json:"bandDerived"`

	CommandsInFlight int  `json:"commandsInFlight"`
	CommandBusy      bool `json:"commandBusy"`
	PlaylistOps      int  `json:"playlistOps"`
	PlaylistBusy     bool `json:"playlistBusy"`

	LastError    string     `json:"lastError,omitempty"`
	LastErrorAt  *time.Time `json:"lastErrorAt,omitempty"`
	LastPollAt   *time.Time `json:"lastPollAt,omitempty"`
	PollFailures int        `json:"pollFailures"`
}

func initialView() View {
	return View{
		ActiveIndex:  -1,
		Playlist:     []Station{},
		SelectedBand: freq.DefaultBand,
	}
}

// Clone returns a deep copy of v.
func (v View) Clone() View {
	out := v
	out.Status = v.Status.clone()
	if v.LastCommand != nil {
		lc := *v.LastCommand
		out.LastCommand = &lc
	}
	out.Playlist = append(make([]Station, 0, len(v.Playlist)), v.Playlist...)
	if v.LastErrorAt != nil {
		t := *v.LastErrorAt
		out.LastErrorAt = &t
	}
	if v.LastPollAt != nil {
		t := *v.LastPollAt
		out.LastPollAt = &t
	}
	return out
}

func (s Status) clone() Status {
	out := s
	if s.Air != nil {
		a := *s.Air
		out.Air = &a
	}
	if s.Web != nil {
		w := *s.Web
		out.Web = &w
	}
	if s.Bluetooth != nil {
		b := *s.Bluetooth
		out.Bluetooth = &b
	}
	return out
}

// Patch mutates a view in place. Patches run under the cell lock and must not block.
type Patch func(*View)

// Cell is the single owner of reconciler state. Every mutation goes through
// Apply, so concurrent writers are serialized and the last write wins.
type Cell struct {
	mu     sync.Mutex
	view   View
	subs   map[int]chan View
	nextID int
	hooks  []func(before, after *View, source Source)
}

// NewCell returns a cell holding the initial view.
func NewCell() *Cell {
	return &Cell{view: initialView(), subs: make(map[int]chan View)}
}

// Apply runs patch against the current view and publishes the result.
func (c *Cell) Apply(patch Patch, source Source) View {
	c.mu.Lock()
	before := c.view.Clone()
	patch(&c.view)
	c.view.Version++
	c.view.UpdatedBy = source
	c.view.CommandBusy = c.view.CommandsInFlight > 0
	c.view.PlaylistBusy = c.view.PlaylistOps > 0
	out := c.view.Clone()
	for _, ch := range c.subs {
		publishLatest(ch, out.Clone())
	}
	hooks := c.hooks
	c.mu.Unlock()

	for _, h := range hooks {
		h(&before, &out, source)
	}
	return out
}

// Snapshot returns a copy of the current view.
func (c *Cell) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// OnApply registers a hook that observes every transition after the lock is
// released. Hooks may call Apply.
func (c *Cell) OnApply(h func(before, after *View, source Source)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// Subscribe returns a channel that always holds the most recent view and a
// cancel func. Slow readers skip intermediate versions.
func (c *Cell) Subscribe() (<-chan View, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan View, 1)
	ch <- c.view.Clone()
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func publishLatest(ch chan View, v View) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
