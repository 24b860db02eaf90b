// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestConfigHolder_ReloadKeepsOldOnError(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	require.NoError(t, os.WriteFile(path, []byte("logLevel: shouting\n"), 0o600))

	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "info", h.Get().LogLevel)
}

func TestConfigHolder_ReloadNotifiesListeners(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	full := make(chan AppConfig) // never drained
	h.RegisterListener(ch)
	h.RegisterListener(full)

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	select {
	case cfg := <-ch:
		assert.Equal(t, "debug", cfg.LogLevel)
	default:
		t.Fatal("listener not notified")
	}
	assert.Equal(t, "debug", h.Get().LogLevel)
}

func TestConfigHolder_WatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := writeConfig(t, "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	ch := make(chan AppConfig, 4)
	h.RegisterListener(ch)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("logLevel: warn\n"), 0o600))

	select {
	case cfg := <-ch:
		assert.Equal(t, "warn", cfg.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}

	cancel()
}

func TestConfigHolder_WatcherNoFile(t *testing.T) {
	h := NewConfigHolder(Defaults(), NewLoader("", ""))
	assert.NoError(t, h.StartWatcher(context.Background()))
}
