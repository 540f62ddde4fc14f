package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2023-12-04T12:30:00", time.Date(2023, 12, 4, 12, 30, 0, 0, time.UTC)},
		{"2023-12-04T12:30", time.Date(2023, 12, 4, 12, 30, 0, 0, time.UTC)},
		{"2023-12-04 12:30", time.Date(2023, 12, 4, 12, 30, 0, 0, time.UTC)},
		{"2023-12-04T12:30:00.5", time.Date(2023, 12, 4, 12, 30, 0, 500_000_000, time.UTC)},
		{"2023-12-04T14:30:00+02:00", time.Date(2023, 12, 4, 12, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTime(tc.in, DateTimeLayouts...)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %v want %v", got, tc.want)
		})
	}
}

func TestParseTime_Invalid(t *testing.T) {
	_, err := ParseTime("", DateTimeLayouts...)
	assert.Error(t, err)

	_, err = ParseTime("04.12.2023", DateTimeLayouts...)
	assert.Error(t, err)

	_, err = ParseTime("2023-12-04T12:30", DateLayout)
	assert.Error(t, err)
}
