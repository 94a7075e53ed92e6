package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		year int
		want string
	}{
		{name: "spaced range", text: "14 - 16 MAR", year: 2024, want: "2024-03-16"},
		{name: "compact range", text: "14-16 MAR", year: 2024, want: "2024-03-16"},
		{name: "lower case month", text: "29-31 mar", year: 2024, want: "2024-03-31"},
		{name: "long month name", text: "1 - 3 November", year: 2023, want: "2023-11-03"},
		{name: "single digit pads", text: "3-5 MAY", year: 2024, want: "2024-05-05"},
		{name: "unknown month defaults to january", text: "14-16 XYZ", year: 2024, want: "2024-01-16"},
		{name: "not a date", text: "not a date", year: 2024, want: ""},
		{name: "single token", text: "MAR", year: 2024, want: ""},
		{name: "empty", text: "", year: 2024, want: ""},
		{name: "day out of range", text: "30-32 JAN", year: 2024, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.text, tt.year))
		})
	}
}

func TestMonth(t *testing.T) {
	t.Parallel()

	m, ok := Month("sep")
	assert.True(t, ok)
	assert.Equal(t, "09", m)

	_, ok = Month("xx")
	assert.False(t, ok)
}

func TestIsDateRange(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDateRange("14 - 16 MAR"))
	assert.True(t, IsDateRange("05-07 Jul"))
	assert.False(t, IsDateRange("14 16 MAR"))
	assert.False(t, IsDateRange("Formula 1 Grand Prix - MAR 2024 edition"))
	assert.False(t, IsDateRange("2024-2025"))
}
