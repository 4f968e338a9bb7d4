package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1024 * 1024, "1.00 MiB"},
		{256 * 1024 * 1024, "256.00 MiB"},
		{1024 * 1024 * 1024, "1.00 GiB"},
		{5 * 1024 * 1024 * 1024 * 1024 / 2, "2.50 TiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.input), "FormatBytes(%d)", tt.input)
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatRate(0))
	assert.Equal(t, "0 B/s", FormatRate(-5))
	assert.Equal(t, "0 B/s", FormatRate(math.NaN()))
	assert.Equal(t, "0 B/s", FormatRate(math.Inf(1)))
	assert.Equal(t, "512 B/s", FormatRate(512))
	assert.Equal(t, "100.00 MiB/s", FormatRate(100*1024*1024))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m 5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h 10m", FormatDuration(2*time.Hour+10*time.Minute))
}

func TestParseHeaderArgs(t *testing.T) {
	got := ParseHeaderArgs([]string{
		"Authorization: Basic dXNlcjpwYXNz",
		"X-Trace:abc:def",
		"broken",
		": no-key",
	})
	assert.Equal(t, map[string]string{
		"Authorization": "Basic dXNlcjpwYXNz",
		"X-Trace":       "abc:def",
	}, got)
}

func TestGetRandomUserAgent(t *testing.T) {
	assert.Contains(t, userAgents, GetRandomUserAgent())
}
