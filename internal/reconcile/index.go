// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

// FromDevice converts a live station index reported by the firmware
// (one-based) to the canonical zero-based index. Zero and negative values
// mean "no station" and pass through unchanged.
func FromDevice(i int) int {
	if i > 0 {
		return i - 1
	}
	return i
}
