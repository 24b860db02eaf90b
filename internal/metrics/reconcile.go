// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Modes known to the mode gauge.
var knownModes = []string{"Air", "Bluetooth", "Web"}

var (
	// Poll metrics
	pollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boomctl_poll_total",
		Help: "Status poll ticks by outcome",
	}, []string{"trigger", "outcome"}) // trigger=interval|settle, outcome=success|failure

	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "boomctl_poll_duration_seconds",
		Help:    "Duration of status polls in seconds",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	lastPollSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boomctl_last_poll_success_timestamp_seconds",
		Help: "Unix time of the last successful status poll",
	})

	// Command metrics
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boomctl_commands_total",
		Help: "Control commands submitted by kind and outcome",
	}, []string{"kind", "outcome"}) // kind=mode|band|volume|...

	commandsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boomctl_commands_in_flight",
		Help: "Control commands currently outstanding",
	})

	// Playlist metrics
	playlistOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boomctl_playlist_operations_total",
		Help: "Playlist operations by kind and outcome",
	}, []string{"op", "outcome"}) // op=list|select|add|delete|update|move

	playlistSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boomctl_playlist_stations",
		Help: "Number of stations in the mirrored playlist",
	})

	// State metrics
	currentMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "boomctl_mode",
		Help: "Active appliance mode (1 for the active mode, 0 otherwise)",
	}, []string{"mode"})

	eventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boomctl_event_subscribers",
		Help: "Connected state event stream clients",
	})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boomctl_config_reloads_total",
		Help: "Configuration reloads by outcome",
	}, []string{"outcome"})
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordPoll records a completed status poll.
func RecordPoll(trigger string, duration time.Duration, err error) {
	pollTotal.WithLabelValues(trigger, outcome(err)).Inc()
	pollDuration.Observe(duration.Seconds())
	if err == nil {
		lastPollSuccess.SetToCurrentTime()
	}
}

// RecordCommand records a control command result.
func RecordCommand(kind string, err error) {
	commandsTotal.WithLabelValues(kind, outcome(err)).Inc()
}

// CommandStarted increments the in-flight gauge; call the returned func when done.
func CommandStarted() func() {
	commandsInFlight.Inc()
	return commandsInFlight.Dec
}

// RecordPlaylistOp records a playlist operation result.
func RecordPlaylistOp(op string, err error) {
	playlistOpsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// SetPlaylistSize updates the mirrored playlist length.
func SetPlaylistSize(n int) {
	playlistSize.Set(float64(n))
}

// SetMode flips the mode gauge to the given mode. Unknown or empty modes
// zero every series.
func SetMode(mode string) {
	for _, m := range knownModes {
		v := 0.0
		if m == mode {
			v = 1
		}
		currentMode.WithLabelValues(m).Set(v)
	}
}

// SubscriberConnected tracks an event stream client; call the returned func on disconnect.
func SubscriberConnected() func() {
	eventSubscribers.Inc()
	return eventSubscribers.Dec
}

// RecordConfigReload records a configuration reload attempt.
func RecordConfigReload(err error) {
	configReloads.WithLabelValues(outcome(err)).Inc()
}
