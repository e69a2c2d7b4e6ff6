package utils

import (
	"fmt"
	"time"
)

// Bid periods almost follow calendar months, with one wrinkle around the
// January/February boundary:
//
//	Jan: Jan 1  - Jan 30
//	Feb: Jan 31 - Mar 1
//	Mar: Mar 2  - Mar 31
//	Apr-Dec: exact calendar months
//
// February absorbs the day January loses plus the first of March, so every
// date belongs to exactly one period.

// BidPeriodRange returns the inclusive start and end dates for a bid period.
// Month must be 1-12.
func BidPeriodRange(year int, month int) (time.Time, time.Time, error) {
	switch {
	case month == 1:
		return dateOf(year, time.January, 1), dateOf(year, time.January, 30), nil
	case month == 2:
		return dateOf(year, time.January, 31), dateOf(year, time.March, 1), nil
	case month == 3:
		return dateOf(year, time.March, 2), dateOf(year, time.March, 31), nil
	case month >= 4 && month <= 12:
		start := dateOf(year, time.Month(month), 1)
		end := start.AddDate(0, 1, -1)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("invalid bid period month: %d", month)
	}
}

// BidPeriodOf returns the (year, month) of the bid period containing d.
// The boundary dates Jan 31 and Mar 1 belong to February's period even
// though they fall in neighboring calendar months.
func BidPeriodOf(d time.Time) (int, int) {
	day := Midnight(d)
	year := day.Year()

	switch {
	case day.Month() == time.January && day.Day() <= 30:
		return year, 1
	case day.Month() == time.January && day.Day() == 31:
		return year, 2
	case day.Month() == time.February:
		return year, 2
	case day.Month() == time.March && day.Day() == 1:
		return year, 2
	case day.Month() == time.March:
		return year, 3
	default:
		return year, int(day.Month())
	}
}

// CurrentBidPeriod returns the (year, month) of the bid period containing now.
func CurrentBidPeriod(now time.Time) (int, int) {
	return BidPeriodOf(now)
}

// Midnight truncates a timestamp to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
