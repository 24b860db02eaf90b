package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/freq"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// startReconciler starts r against dev and waits for the initial poll.
func startReconciler(t *testing.T, dev *fakeDevice, opts Options) *Reconciler {
	t.Helper()
	r := New(dev, opts)
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(r.Stop)
	require.Eventually(t, func() bool {
		calls, _ := dev.counts()
		return calls >= 1
	}, waitFor, tick)
	return r
}

var slow = Options{PollInterval: time.Hour, SettleDelay: time.Hour}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(newFakeDevice(), Options{})
	assert.Equal(t, DefaultPollInterval, r.Options().PollInterval)
	assert.Equal(t, DefaultSettleDelay, r.Options().SettleDelay)

	r = New(newFakeDevice(), Options{PollInterval: time.Second, SettleDelay: -1})
	assert.Equal(t, time.Duration(0), r.Options().SettleDelay)
}

func TestStartPollsImmediately(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, slow)

	require.Eventually(t, func() bool { return r.State().LastPollAt != nil }, waitFor, tick)
	v := r.State()
	require.NotNil(t, v.Status.Air)
	assert.Equal(t, "100,60", v.Status.Air.FrequencyText)
	assert.Equal(t, freq.BandFM, v.SelectedBand)
	assert.True(t, v.BandDerived)
	assert.False(t, r.LastPollSuccess().IsZero())

	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRunning)
}

func TestSendRequiresRunning(t *testing.T) {
	dev := newFakeDevice()
	r := New(dev, slow)

	assert.ErrorIs(t, r.SwitchMode(context.Background(), boombox.ModeWeb), ErrNotRunning)
	assert.ErrorIs(t, r.Refresh(context.Background()), ErrNotRunning)
	assert.ErrorIs(t, r.Playlist().Select(context.Background(), 1), ErrNotRunning)
	assert.Empty(t, dev.sentControls())
	assert.Empty(t, dev.selects)
}

func TestSwitchModeClearsBeforePoll(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, slow)
	require.Eventually(t, func() bool { return r.State().Status.Air != nil }, waitFor, tick)

	require.NoError(t, r.SwitchMode(context.Background(), boombox.ModeWeb))

	if diff := cmp.Diff(Status{Mode: boombox.ModeWeb}, r.State().Status); diff != "" {
		t.Errorf("status after switch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []boombox.ControlRequest{{Control: 0, Value: 0, Mode: "Web"}}, dev.sentControls())
	polls, _ := dev.counts()
	assert.Equal(t, 1, polls)
}

func TestSettlePollAfterCommand(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, Options{PollInterval: time.Hour, SettleDelay: 10 * time.Millisecond})

	require.NoError(t, r.SetVolume(context.Background(), 20, ""))
	assert.Equal(t, boombox.ControlRequest{Control: 15, Value: 20}, dev.sentControls()[0])

	require.Eventually(t, func() bool {
		polls, _ := dev.counts()
		return polls == 2
	}, waitFor, tick)

	time.Sleep(50 * time.Millisecond)
	polls, _ := dev.counts()
	assert.Equal(t, 2, polls, "exactly one settle poll per command")
	assert.False(t, r.State().CommandBusy)
}

func TestFailedCommandKeepsOptimisticClear(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	dev.controlErr = &boombox.DeviceError{Sentinel: boombox.ErrRejected, Operation: "control", Status: 500, Body: "Queue send failed"}
	r := startReconciler(t, dev, Options{PollInterval: time.Hour, SettleDelay: 5 * time.Millisecond})
	require.Eventually(t, func() bool { return r.State().Status.Air != nil }, waitFor, tick)

	err := r.SwitchMode(context.Background(), boombox.ModeBluetooth)
	require.ErrorIs(t, err, boombox.ErrRejected)

	v := r.State()
	assert.Equal(t, boombox.ModeBluetooth, v.Status.Mode)
	assert.Nil(t, v.Status.Air)
	assert.Equal(t, "Queue send failed", v.LastError)
	assert.False(t, v.CommandBusy)

	time.Sleep(30 * time.Millisecond)
	polls, _ := dev.counts()
	assert.Equal(t, 1, polls, "no settle poll after a failed command")

	r.ClearError()
	assert.Empty(t, r.State().LastError)
}

func TestValueCommandWithSameModeDoesNotClear(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, slow)
	require.Eventually(t, func() bool { return r.State().Status.Air != nil }, waitFor, tick)

	require.NoError(t, r.SetVolume(context.Background(), 40, boombox.ModeAir))
	assert.NotNil(t, r.State().Status.Air)

	require.NoError(t, r.SetVolume(context.Background(), 40, boombox.ModeWeb))
	assert.Equal(t, Status{Mode: boombox.ModeWeb}, r.State().Status)
}

func TestCommandBusyWhileInFlight(t *testing.T) {
	dev := newFakeDevice()
	dev.block = make(chan struct{})
	r := startReconciler(t, dev, slow)

	errc := make(chan error, 1)
	go func() { errc <- r.StationStep(context.Background(), true) }()

	require.Eventually(t, func() bool { return r.State().CommandBusy }, waitFor, tick)
	close(dev.block)
	require.NoError(t, <-errc)
	assert.False(t, r.State().CommandBusy)
}

func TestPollFailureKeepsSnapshot(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, slow)
	require.Eventually(t, func() bool { return r.State().Status.Air != nil }, waitFor, tick)
	before := r.State()

	dev.mu.Lock()
	dev.statusErr = func(int) error { return errOffline }
	dev.mu.Unlock()

	require.Error(t, r.Refresh(context.Background()))
	after := r.State()
	if diff := cmp.Diff(before.Status, after.Status); diff != "" {
		t.Errorf("snapshot changed on failed poll (-before +after):\n%s", diff)
	}
	assert.NotEmpty(t, after.LastError)
	assert.Equal(t, 1, after.PollFailures)
}

func TestPollLoopSurvivesFailures(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(8750))
	dev.statusErr = func(call int) error {
		if call <= 3 {
			return errOffline
		}
		return nil
	}
	r := startReconciler(t, dev, Options{PollInterval: 10 * time.Millisecond, SettleDelay: time.Hour})

	require.Eventually(t, func() bool {
		v := r.State()
		return v.LastPollAt != nil && v.LastError == ""
	}, waitFor, tick)
	polls, _ := dev.counts()
	assert.GreaterOrEqual(t, polls, 4)
	assert.Equal(t, "87,50", r.State().Status.Air.FrequencyText)
}

func TestStopCancelsPendingSettle(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := New(dev, slow)
	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return r.State().LastPollAt != nil }, waitFor, tick)

	require.NoError(t, r.Seek(context.Background(), true))
	assert.Equal(t, 1, r.sched.Pending())

	r.Stop()
	assert.Zero(t, r.sched.Pending())
	polls, _ := dev.counts()
	assert.Equal(t, 1, polls)
	r.Stop()
}

func TestRunStopsOnCancel(t *testing.T) {
	dev := newFakeDevice()
	r := New(dev, slow)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		polls, _ := dev.counts()
		return polls >= 1
	}, waitFor, tick)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, r.sched.Running())
}

func TestConvenienceCommands(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, slow)
	require.Eventually(t, func() bool { return r.State().Status.Air != nil }, waitFor, tick)
	ctx := context.Background()

	require.NoError(t, r.SetFrequency(ctx, "101,10"))
	require.NoError(t, r.SetFrequency(ctx, "10110"))
	require.NoError(t, r.Seek(ctx, true))
	require.NoError(t, r.Seek(ctx, false))
	require.NoError(t, r.StationStep(ctx, false))
	require.NoError(t, r.Play(ctx, boombox.PlayNext))
	require.NoError(t, r.SetBand(ctx, freq.BandMW))

	want := []boombox.ControlRequest{
		{Control: 16, Value: 10110},
		{Control: 16, Value: 10110},
		{Control: 10, Value: 1},
		{Control: 11, Value: 1},
		{Control: 12, Value: 1},
		{Control: 17, Value: 4},
		{Control: 1, Value: 1},
	}
	if diff := cmp.Diff(want, dev.sentControls()); diff != "" {
		t.Errorf("sent controls (-want +got):\n%s", diff)
	}
	assert.Equal(t, freq.BandMW, r.State().SelectedBand)
}

func TestConvenienceValidation(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := startReconciler(t, dev, slow)
	ctx := context.Background()

	for name, err := range map[string]error{
		"frequency": r.SetFrequency(ctx, "abc"),
		"zero":      r.SetFrequency(ctx, "0"),
		"volume":    r.SetVolume(ctx, 101, ""),
		"action":    r.Play(ctx, boombox.PlayAction(9)),
		"band":      r.SetBand(ctx, freq.Band(7)),
		"mode":      r.SwitchMode(ctx, boombox.Mode("FM")),
	} {
		assert.Error(t, err, name)
		assert.True(t, IsValidation(err), name)
	}
	assert.Empty(t, dev.sentControls())
}

func TestSetFrequencyUsesSelectedBandWithoutAir(t *testing.T) {
	dev := newFakeDevice()
	dev.statusErr = func(int) error { return errOffline }
	r := startReconciler(t, dev, slow)

	require.NoError(t, r.SetFrequency(context.Background(), "87.5"))
	assert.Equal(t, boombox.ControlRequest{Control: 16, Value: 8750}, dev.sentControls()[0])
}

func TestDeviceConfigPassthrough(t *testing.T) {
	r := New(newFakeDevice(), slow)
	cfg, err := r.DeviceConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Volume)
}

func TestWebIndexNormalizedOncePerPoll(t *testing.T) {
	dev := newFakeDevice("A", "B", "C")
	dev.setStatus(webEnvelope(3))
	r := startReconciler(t, dev, slow)

	require.Eventually(t, func() bool { return r.State().Status.Web != nil }, waitFor, tick)
	require.NoError(t, r.Refresh(context.Background()))

	v := r.State()
	assert.Equal(t, 2, v.Status.Web.StationIndex)
	assert.Equal(t, 2, v.ActiveIndex)
}

func TestSubscribeReceivesPolls(t *testing.T) {
	dev := newFakeDevice()
	dev.setStatus(airEnvelope(10060))
	r := New(dev, slow)
	ch, cancel := r.Subscribe()
	defer cancel()

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	deadline := time.After(waitFor)
	for {
		select {
		case v := <-ch:
			if v.Status.Air != nil {
				assert.Equal(t, SourcePoll, v.UpdatedBy)
				return
			}
		case <-deadline:
			t.Fatal("no polled view delivered")
		}
	}
}
