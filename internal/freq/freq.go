// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package freq converts between user-facing frequency strings and the integer
// encoding used by the tuner firmware.
//
// FM frequencies travel as hundredths of a MHz (100.60 MHz -> 10060); all other
// bands use raw kHz. Display strings use a comma as the decimal separator.
package freq

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidFrequency is returned when user input is not a finite positive number.
var ErrInvalidFrequency = errors.New("invalid frequency")

// scaleThreshold separates MHz-style input ("100.60") from values that are
// already in device units ("10060") on scaled bands.
const scaleThreshold = 200

// Band is the tuner band selector as understood by the BandIndex control.
type Band int

const (
	BandLW Band = iota
	BandMW
	BandSW
	BandFM
)

// DefaultBand is used when the device reports a band name we do not know.
const DefaultBand = BandFM

var bandNames = [...]string{"LW", "MW", "SW", "FM"}

func (b Band) String() string {
	if b < BandLW || b > BandFM {
		return "unknown"
	}
	return bandNames[b]
}

// Valid reports whether b is one of the four tuner bands.
func (b Band) Valid() bool {
	return b >= BandLW && b <= BandFM
}

// MarshalText renders the band name.
func (b Band) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("freq: invalid band %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText accepts a band name.
func (b *Band) UnmarshalText(text []byte) error {
	parsed, ok := ParseBand(string(text))
	if !ok {
		return fmt.Errorf("freq: unknown band %q", text)
	}
	*b = parsed
	return nil
}

// ParseBand maps a device band name ("FM", " mw ") to a Band.
func ParseBand(name string) (Band, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, s := range bandNames {
		if s == n {
			return Band(i), true
		}
	}
	return DefaultBand, false
}

// IsScaled reports whether frequencies for this band/unit travel as
// hundredths of a MHz.
func IsScaled(band, unitHint string) bool {
	b := strings.ToUpper(strings.TrimSpace(band))
	u := strings.ToUpper(strings.TrimSpace(unitHint))
	return b == "FM" || u == "MHZ"
}

// Decode renders a device frequency for display.
func Decode(raw int, band, unitHint string) string {
	if !IsScaled(band, unitHint) {
		return strconv.Itoa(raw)
	}
	s := strconv.FormatFloat(float64(raw)/100, 'f', 2, 64)
	return strings.Replace(s, ".", ",", 1)
}

// Encode parses user input into the device integer encoding. Both "100,60"
// and "100.60" are accepted.
func Encode(display, band, unitHint string) (int, error) {
	s := strings.Replace(strings.TrimSpace(display), ",", ".", 1)
	if s == "" {
		return 0, ErrInvalidFrequency
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidFrequency
	}
	if IsScaled(band, unitHint) && v < scaleThreshold {
		v *= 100
	}
	r := math.Round(v)
	if r > math.MaxInt32 {
		return 0, ErrInvalidFrequency
	}
	return int(r), nil
}
