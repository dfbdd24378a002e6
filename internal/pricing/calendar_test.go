package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBusinessDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"same day", day(2024, 1, 1), day(2024, 1, 1), 0},
		{"one week", day(2024, 1, 1), day(2024, 1, 8), 5},
		{"friday to saturday", day(2024, 1, 5), day(2024, 1, 6), 1},
		{"weekend only", day(2024, 1, 6), day(2024, 1, 8), 0},
		{"reversed", day(2024, 1, 8), day(2024, 1, 1), -5},
		{"trading year", day(2024, 1, 1), day(2024, 12, 18), 252},
		{"ignores time of day", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BusinessDaysBetween(tt.from, tt.to))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-20")
	assert.NoError(t, err)
	assert.Equal(t, day(2026, 3, 20), d)

	_, err = ParseDate("20/03/2026")
	assert.Error(t, err)
}
