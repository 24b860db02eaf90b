// SPDX-License-Identifier: MIT
package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/v1/state", "http://localhost:8080/api/v1/state", 200)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "GET")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/v1/state")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestCommandAttributes(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantLen int
	}{
		{name: "value command", mode: "", wantLen: 2},
		{name: "with mode", mode: "Web", wantLen: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := CommandAttributes(15, 12, tt.mode)
			if len(attrs) != tt.wantLen {
				t.Fatalf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			verifyIntAttribute(t, attrs, CommandControlKey, 15)
			verifyIntAttribute(t, attrs, CommandValueKey, 12)
			if tt.mode != "" {
				verifyAttribute(t, attrs, DeviceModeKey, tt.mode)
			}
		})
	}
}

func TestDeviceAndMoveAttributes(t *testing.T) {
	attrs := DeviceAttributes("status", "/status")
	verifyAttribute(t, attrs, DeviceOperationKey, "status")
	verifyAttribute(t, attrs, DeviceEndpointKey, "/status")

	move := MoveAttributes(2, 0)
	verifyIntAttribute(t, move, PlaylistFromKey, 2)
	verifyIntAttribute(t, move, PlaylistToKey, 0)
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("unavailable")
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, ErrorTypeKey, "unavailable")
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, want string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if got := attr.Value.AsString(); got != want {
				t.Errorf("attribute %s = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, want int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if got := attr.Value.AsInt64(); got != int64(want) {
				t.Errorf("attribute %s = %d, want %d", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}
