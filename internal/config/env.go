// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/boomctl/internal/log"
)

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return lookupEnv(key, defaultValue, func(v string) (string, error) { return v, nil })
}

// ParseInt reads an integer from environment variable or returns default value.
// Invalid values fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	return lookupEnv(key, defaultValue, strconv.Atoi)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookupEnv(key, defaultValue, func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	})
}

// ParseDuration reads a duration in Go format (e.g. "2s") from environment variable.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return lookupEnv(key, defaultValue, func(v string) (bool, error) {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean %q", v)
	})
}

// ParseList reads a comma separated list. Blank items are dropped.
func ParseList(key string, defaultValue []string) []string {
	return lookupEnv(key, defaultValue, func(v string) ([]string, error) {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	})
}

func lookupEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")

	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str("key", key).
			Interface("default", defaultValue).
			Str(log.FieldSource, "default").
			Msg("using default value")
		return defaultValue
	}

	parsed, err := parse(v)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", v).
			Interface("default", defaultValue).
			Msg("invalid value in environment variable, using default")
		return defaultValue
	}

	logger.Debug().
		Str("key", key).
		Interface("value", parsed).
		Str(log.FieldSource, "environment").
		Msg("using environment variable")
	return parsed
}
