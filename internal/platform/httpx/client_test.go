package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientTimeouts(t *testing.T) {
	tests := []struct {
		name        string
		timeout     time.Duration
		wantTimeout time.Duration
		wantDial    time.Duration
		wantHeader  time.Duration
	}{
		{"zero uses default", 0, defaultClientTimeout, defaultDialTimeout, defaultResponseHeaderTimeout},
		{"long timeout caps dial and header", 10 * time.Second, 10 * time.Second, defaultDialTimeout, defaultResponseHeaderTimeout},
		{"short timeout applies everywhere", 1500 * time.Millisecond, 1500 * time.Millisecond, 1500 * time.Millisecond, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.timeout)
			assert.Equal(t, tt.wantTimeout, client.Timeout)

			transport, ok := client.Transport.(*http.Transport)
			require.True(t, ok, "transport type %T", client.Transport)
			assert.Equal(t, tt.wantDial, transport.TLSHandshakeTimeout)
			assert.Equal(t, tt.wantHeader, transport.ResponseHeaderTimeout)
			assert.Equal(t, defaultMaxIdleConns, transport.MaxIdleConns)
			assert.Equal(t, defaultMaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
			assert.Equal(t, defaultIdleConnTimeout, transport.IdleConnTimeout)
		})
	}
}

func TestNewTracedClient_WrapsTransport(t *testing.T) {
	client := NewTracedClient(time.Second, "boombox")
	_, plain := client.Transport.(*http.Transport)
	assert.False(t, plain, "transport should be wrapped by otelhttp")
	assert.Equal(t, time.Second, client.Timeout)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := client.Get(srv.URL + "/api/boombox/status")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
