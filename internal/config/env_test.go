// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{name: "environment variable set", key: "TEST_STRING", defaultValue: "default", envValue: "from-env", envSet: true, want: "from-env"},
		{name: "environment variable not set", key: "TEST_STRING_UNSET", defaultValue: "default", want: "default"},
		{name: "environment variable empty string", key: "TEST_STRING_EMPTY", defaultValue: "default", envValue: "", envSet: true, want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}
			assert.Equal(t, tt.want, ParseString(tt.key, tt.defaultValue))
		})
	}
}

func TestParseNumbersFallBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT", "12x")
	t.Setenv("TEST_FLOAT", "nope")
	t.Setenv("TEST_DURATION", "5 parsecs")

	assert.Equal(t, 7, ParseInt("TEST_INT", 7))
	assert.Equal(t, 0.5, ParseFloat("TEST_FLOAT", 0.5))
	assert.Equal(t, 2*time.Second, ParseDuration("TEST_DURATION", 2*time.Second))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("TEST_POLL", "750ms")
	assert.Equal(t, 750*time.Millisecond, ParseDuration("TEST_POLL", 2*time.Second))
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "yes"} {
		t.Setenv("TEST_BOOL", v)
		assert.True(t, ParseBool("TEST_BOOL", false), v)
	}
	for _, v := range []string{"false", "0", "No"} {
		t.Setenv("TEST_BOOL", v)
		assert.False(t, ParseBool("TEST_BOOL", true), v)
	}
	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, ParseBool("TEST_BOOL", true))
}

func TestParseList(t *testing.T) {
	t.Setenv("TEST_LIST", " http://a , ,http://b")
	assert.Equal(t, []string{"http://a", "http://b"}, ParseList("TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, ParseList("TEST_LIST_UNSET", []string{"x"}))
}
