package devicesim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/playlist"
)

func newTestDevice() *Device {
	return NewDevice(NewMemoryStore(
		playlist.Entry{Title: "Jazz", URL: "http://jazz"},
		playlist.Entry{Title: "Rock", URL: "http://rock"},
		playlist.Entry{Title: "News", URL: "http://news"},
	))
}

func TestDeviceStartsInAir(t *testing.T) {
	st := newTestDevice().Status()
	assert.Equal(t, "Air", st.CurrentStatus.Mode)
	require.NotNil(t, st.CurrentStatus.Air)
	assert.Nil(t, st.CurrentStatus.Web)
	assert.Nil(t, st.CurrentStatus.Bluetooth)
	assert.Equal(t, "FM", st.CurrentStatus.Air.Band)
	assert.Equal(t, 10060, st.CurrentStatus.Air.Frequency)
	assert.Equal(t, "MHz", st.CurrentStatus.Air.FreqRange)
}

func TestDeviceSelectReportsOneBased(t *testing.T) {
	d := newTestDevice()
	require.NoError(t, d.Enqueue(Command{Mode: "Web", Control: int(boombox.ControlPlay), Value: 102}))

	st := d.Status()
	assert.Equal(t, "Web", st.CurrentStatus.Mode)
	require.NotNil(t, st.CurrentStatus.Web)
	assert.Equal(t, 3, st.CurrentStatus.Web.StationIndex)
	assert.Equal(t, "News", st.CurrentStatus.Web.Station)
	assert.Equal(t, "PlayControl", st.LastCommand.Control)
	assert.Equal(t, 102, st.LastCommand.Value)
	assert.True(t, st.LastCommand.HasChanges)
}

func TestDeviceWebWithoutSelection(t *testing.T) {
	d := newTestDevice()
	require.NoError(t, d.Enqueue(Command{Mode: "Web"}))
	st := d.Status()
	require.NotNil(t, st.CurrentStatus.Web)
	assert.Zero(t, st.CurrentStatus.Web.StationIndex)
	assert.Empty(t, st.CurrentStatus.Web.Station)
}

func TestDeviceModeNames(t *testing.T) {
	d := newTestDevice()
	require.NoError(t, d.Enqueue(Command{Mode: "BT"}))
	assert.Equal(t, "Bluetooth", d.Status().CurrentStatus.Mode)

	// names are case-sensitive on the appliance
	require.NoError(t, d.Enqueue(Command{Mode: "air"}))
	assert.Equal(t, "Bluetooth", d.Status().CurrentStatus.Mode)
}

func TestDeviceTuning(t *testing.T) {
	d := newTestDevice()

	require.NoError(t, d.Enqueue(Command{Control: int(boombox.ControlSetFrequency), Value: 9420}))
	assert.Equal(t, 9420, d.Status().CurrentStatus.Air.Frequency)

	require.NoError(t, d.Enqueue(Command{Control: int(boombox.ControlSeekUp), Value: 1}))
	assert.Equal(t, 10060, d.Status().CurrentStatus.Air.Frequency)

	require.NoError(t, d.Enqueue(Command{Control: int(boombox.ControlBand), Value: 1}))
	air := d.Status().CurrentStatus.Air
	assert.Equal(t, "MW", air.Band)
	assert.Equal(t, 531, air.Frequency)
	assert.Equal(t, "kHz", air.FreqRange)

	require.NoError(t, d.Enqueue(Command{Control: int(boombox.ControlStepUp), Value: 1}))
	assert.Equal(t, 540, d.Status().CurrentStatus.Air.Frequency)

	require.NoError(t, d.Enqueue(Command{Control: int(boombox.ControlVolume), Value: 250}))
	assert.Equal(t, 100, d.Status().CurrentStatus.Air.Volume)
}

func TestDeviceQueueFull(t *testing.T) {
	d := newTestDevice()
	d.SetQueueFull(true)
	assert.ErrorIs(t, d.Enqueue(Command{Mode: "Web"}), ErrQueueFull)
	assert.Equal(t, "Air", d.Status().CurrentStatus.Mode)

	d.SetQueueFull(false)
	assert.NoError(t, d.Enqueue(Command{Mode: "Web"}))
}

func TestDeviceConfig(t *testing.T) {
	d := newTestDevice()
	cfg := d.Config()
	assert.Equal(t, "Air", cfg.Mode)
	assert.Equal(t, []int{8750, 9420, 10060, 10470}, cfg.AirConfig.FMStations)
	assert.Equal(t, 1, cfg.AirConfig.AGCEnabled)

	require.NoError(t, d.Enqueue(Command{Control: int(boombox.ControlAGCSlider), Value: 0}))
	assert.Equal(t, 0, d.Config().AirConfig.AGCEnabled)
}
