package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/ManuGH/boomctl/internal/boombox"
)

var errOffline = &boombox.DeviceError{Sentinel: boombox.ErrUnavailable, Operation: "status", Err: errors.New("connection refused")}

// fakeDevice is an in-memory appliance. Its playlist behaves like the
// firmware's: move removes and re-inserts, indices are positional.
type fakeDevice struct {
	mu sync.Mutex

	status      boombox.StatusEnvelope
	statusErr   func(call int) error
	controlErr  error
	playlistErr error
	selectErr   error

	statusCalls   int
	playlistCalls int
	controls      []boombox.ControlRequest
	selects       []int
	stations      []boombox.Station

	// block, when set, holds SendControl until it is closed.
	block chan struct{}
}

func newFakeDevice(titles ...string) *fakeDevice {
	d := &fakeDevice{}
	for _, t := range titles {
		d.stations = append(d.stations, boombox.Station{Title: t, URL: "http://radio/" + t})
	}
	return d
}

func airEnvelope(freq int) boombox.StatusEnvelope {
	return boombox.StatusEnvelope{
		LastCommand: boombox.LastCommand{Mode: "Air", Control: "SetFrequency", Value: freq},
		CurrentStatus: boombox.CurrentStatus{
			Mode: "Air",
			Air: &boombox.AirStatus{
				Band:       "FM",
				Frequency:  freq,
				FreqRange:  "MHz",
				RSSI:       40,
				SNR:        22,
				StereoMono: "Stereo",
			},
		},
	}
}

func webEnvelope(deviceIndex int) boombox.StatusEnvelope {
	return boombox.StatusEnvelope{
		CurrentStatus: boombox.CurrentStatus{
			Mode: "Web",
			Web:  &boombox.WebStatus{StationIndex: deviceIndex, Station: "Jazz", URI: "http://radio/jazz"},
		},
	}
}

func (d *fakeDevice) setStatus(env boombox.StatusEnvelope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = env
}

func (d *fakeDevice) Status(ctx context.Context) (*boombox.StatusEnvelope, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.statusErr != nil {
		if err := d.statusErr(d.statusCalls); err != nil {
			return nil, err
		}
	}
	env := d.status
	return &env, nil
}

func (d *fakeDevice) Config(context.Context) (*boombox.Config, error) {
	return &boombox.Config{Mode: "Air", Volume: 12}, nil
}

func (d *fakeDevice) SendControl(ctx context.Context, req boombox.ControlRequest) (*boombox.Ack, error) {
	d.mu.Lock()
	block := d.block
	d.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.controls = append(d.controls, req)
	if d.controlErr != nil {
		return nil, d.controlErr
	}
	return &boombox.Ack{Status: "ok", Message: "Command sent successfully"}, nil
}

func (d *fakeDevice) Playlist(context.Context) (*boombox.Playlist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playlistCalls++
	if d.playlistErr != nil {
		return nil, d.playlistErr
	}
	out := make([]boombox.Station, len(d.stations))
	for i, s := range d.stations {
		s.Index = i
		out[i] = s
	}
	return &boombox.Playlist{Count: len(out), Stations: out}, nil
}

func (d *fakeDevice) Select(_ context.Context, index int) (*boombox.Ack, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selects = append(d.selects, index)
	if d.selectErr != nil {
		return nil, d.selectErr
	}
	i := index
	return &boombox.Ack{Status: "ok", Message: "Station selected", Index: &i}, nil
}

func (d *fakeDevice) AddStation(_ context.Context, title, streamURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stations = append(d.stations, boombox.Station{Title: title, URL: streamURL})
	return nil
}

func (d *fakeDevice) DeleteStation(_ context.Context, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index >= len(d.stations) {
		return &boombox.DeviceError{Sentinel: boombox.ErrRejected, Operation: "delete", Status: 500, Body: "Failed to delete station"}
	}
	d.stations = append(d.stations[:index], d.stations[index+1:]...)
	return nil
}

func (d *fakeDevice) UpdateStation(_ context.Context, index int, title, streamURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index >= len(d.stations) {
		return &boombox.DeviceError{Sentinel: boombox.ErrRejected, Operation: "update", Status: 500, Body: "Failed to update station"}
	}
	if title != "" {
		d.stations[index].Title = title
	}
	if streamURL != "" {
		d.stations[index].URL = streamURL
	}
	return nil
}

func (d *fakeDevice) MoveStation(_ context.Context, from, to int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if from >= len(d.stations) || to >= len(d.stations) {
		return &boombox.DeviceError{Sentinel: boombox.ErrRejected, Operation: "move", Status: 500, Body: "Failed to move station"}
	}
	s := d.stations[from]
	d.stations = append(d.stations[:from], d.stations[from+1:]...)
	d.stations = append(d.stations[:to], append([]boombox.Station{s}, d.stations[to:]...)...)
	return nil
}

func (d *fakeDevice) sentControls() []boombox.ControlRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]boombox.ControlRequest(nil), d.controls...)
}

func (d *fakeDevice) counts() (status, playlist int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusCalls, d.playlistCalls
}

func (d *fakeDevice) titles() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.stations))
	for _, s := range d.stations {
		out = append(out, s.Title)
	}
	return out
}
