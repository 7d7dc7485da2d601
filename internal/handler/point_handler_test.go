package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", "2025-11-08T10:30:00Z", time.Date(2025, 11, 8, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2025-11-08T18:30:00+08:00", time.Date(2025, 11, 8, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 nanos", "2025-11-08T10:30:00.5Z", time.Date(2025, 11, 8, 10, 30, 0, 5e8, time.UTC)},
		{"legacy", "2025-11-08T10:30:00:000000", time.Date(2025, 11, 8, 10, 30, 0, 0, time.UTC)},
		{"legacy micros", "2025-11-08T10:30:00:000250", time.Date(2025, 11, 8, 10, 30, 0, 250000, time.UTC)},
		{"padded", " 2025-11-08T10:30:00Z ", time.Date(2025, 11, 8, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReportTime(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseReportTimeRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"yesterday",
		"2025-11-08 10:30:00",
		"2025-11-08T10:30:00:123",
		"2025-13-08T10:30:00:000000",
	} {
		_, err := parseReportTime(input)
		assert.ErrorIs(t, err, errInvalidTime, input)
	}
}
