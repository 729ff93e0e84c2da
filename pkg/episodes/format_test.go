package episodes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationToTimeString(t *testing.T) {
	tests := map[string]struct {
		input int
		want  string
	}{
		"zero":     {input: 0, want: "00:00:00"},
		"seconds":  {input: 59, want: "00:00:59"},
		"minute":   {input: 60, want: "00:01:00"},
		"hour":     {input: 3600, want: "01:00:00"},
		"episode":  {input: 3981, want: "01:06:21"},
		"long":     {input: 100 * 3600, want: "100:00:00"},
		"negative": {input: -5, want: "00:00:00"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, DurationToTimeString(tc.input))
		})
	}
}

func TestFormatPublishedAt(t *testing.T) {
	tests := map[string]struct {
		input time.Time
		want  string
	}{
		"january":  {input: time.Date(2021, 1, 8, 16, 0, 0, 0, time.UTC), want: "8 jan 21"},
		"february": {input: time.Date(2021, 2, 12, 0, 0, 0, 0, time.UTC), want: "12 fev 21"},
		"december": {input: time.Date(2009, 12, 31, 23, 59, 0, 0, time.UTC), want: "31 dez 09"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatPublishedAt(tc.input))
		})
	}
}
