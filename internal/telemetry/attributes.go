// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by device client and reconciler spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	DeviceOperationKey = "boombox.operation"
	DeviceEndpointKey  = "boombox.endpoint"
	DeviceModeKey      = "boombox.mode"

	CommandControlKey = "boombox.command.control"
	CommandValueKey   = "boombox.command.value"

	PlaylistIndexKey = "boombox.playlist.index"
	PlaylistFromKey  = "boombox.playlist.from"
	PlaylistToKey    = "boombox.playlist.to"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// DeviceAttributes describes a single device API call.
func DeviceAttributes(operation, endpoint string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DeviceOperationKey, operation),
		attribute.String(DeviceEndpointKey, endpoint),
	}
}

// CommandAttributes describes a control command. An empty mode is omitted.
func CommandAttributes(control, value int, mode string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(CommandControlKey, control),
		attribute.Int(CommandValueKey, value),
	}
	if mode != "" {
		attrs = append(attrs, attribute.String(DeviceModeKey, mode))
	}
	return attrs
}

// MoveAttributes describes a playlist reorder.
func MoveAttributes(from, to int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(PlaylistFromKey, from),
		attribute.Int(PlaylistToKey, to),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
