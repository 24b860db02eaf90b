// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldCommandID = "command_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSource    = "source"

	// Device fields
	FieldMode      = "mode"
	FieldControl   = "control"
	FieldValue     = "value"
	FieldBand      = "band"
	FieldFrequency = "frequency"
	FieldIndex     = "index"
	FieldFrom      = "from"
	FieldTo        = "to"
	FieldStations  = "stations"

	// State fields
	FieldOldMode = "old_mode"
	FieldNewMode = "new_mode"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
