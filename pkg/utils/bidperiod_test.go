package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBidPeriodRange(t *testing.T) {
	tests := []struct {
		name  string
		month int
		start string
		end   string
	}{
		{"january loses its last day", 1, "2025-01-01", "2025-01-30"},
		{"february absorbs both neighbors", 2, "2025-01-31", "2025-03-01"},
		{"march starts on the second", 3, "2025-03-02", "2025-03-31"},
		{"april is a plain calendar month", 4, "2025-04-01", "2025-04-30"},
		{"december is a plain calendar month", 12, "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := BidPeriodRange(2025, tt.month)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start.Format("2006-01-02"))
			assert.Equal(t, tt.end, end.Format("2006-01-02"))
		})
	}
}

func TestBidPeriodRangeRejectsBadMonth(t *testing.T) {
	_, _, err := BidPeriodRange(2025, 0)
	assert.Error(t, err)
	_, _, err = BidPeriodRange(2025, 13)
	assert.Error(t, err)
}

func TestBidPeriodOfBoundaryDates(t *testing.T) {
	tests := []struct {
		date  string
		month int
	}{
		{"2025-01-30", 1},
		{"2025-01-31", 2},
		{"2025-02-14", 2},
		{"2025-03-01", 2},
		{"2025-03-02", 3},
		{"2025-03-31", 3},
		{"2025-07-15", 7},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		year, month := BidPeriodOf(d)
		assert.Equal(t, 2025, year, tt.date)
		assert.Equal(t, tt.month, month, tt.date)
	}
}

// Every day of the year belongs to exactly one period, and that period's
// range contains the day.
func TestBidPeriodsPartitionTheYear(t *testing.T) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == 2025 {
		year, month := BidPeriodOf(day)
		start, end, err := BidPeriodRange(year, month)
		require.NoError(t, err)
		assert.False(t, day.Before(start) || day.After(end),
			"%s not inside its own period %d-%02d", day.Format("2006-01-02"), year, month)
		day = day.AddDate(0, 0, 1)
	}
}

func TestMidnight(t *testing.T) {
	in := time.Date(2025, 12, 16, 23, 55, 12, 99, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC), Midnight(in))
}
