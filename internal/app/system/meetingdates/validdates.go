// Package meetingdates computes the calendar dates on which a cell is
// expected to meet, picks the date a new attendance report starts with,
// and tracks user overrides that fall outside the cell's meeting weekday.
//
// All functions work on calendar days held as UTC midnights. Callers pick
// the church's time zone only to read today's date off the clock; Day then
// drops the zone, so local DST transitions never shift a weekday.
package meetingdates

import (
	"time"
)

// Layout is the calendar-day format used on the wire and in storage.
const Layout = "2006-01-02"

// WeeksEachWay is how many weeks ValidDates enumerates before and after today.
const WeeksEachWay = 52

// Cell is anything with an optional fixed meeting weekday.
type Cell interface {
	MeetingWeekday() (time.Weekday, bool)
}

// Day returns the calendar date t shows in its own location, as UTC
// midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a Layout string as a calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

// Format renders a day in Layout.
func Format(t time.Time) string {
	return t.Format(Layout)
}

func weekdayOf(c Cell) (time.Weekday, bool) {
	if c == nil {
		return 0, false
	}
	return c.MeetingWeekday()
}

// snap moves t onto wd inside t's Sunday-started calendar week.
func snap(t time.Time, wd time.Weekday) time.Time {
	return t.AddDate(0, 0, int(wd)-int(t.Weekday()))
}

// ValidDates enumerates the cell's meeting dates around today in
// chronological order: one per calendar week for the WeeksEachWay weeks
// before today's week, then today's week and the WeeksEachWay-1 weeks after.
//
// Each date is snapped onto the weekday within its own week rather than
// stepped from a single anchor, so every entry lands on the weekday
// independently. The current week's entry may fall before today.
//
// A cell without a fixed weekday yields nil: every date is valid.
func ValidDates(c Cell, today time.Time) []time.Time {
	wd, ok := weekdayOf(c)
	if !ok {
		return nil
	}
	today = Day(today)

	out := make([]time.Time, 0, 2*WeeksEachWay)
	for i := WeeksEachWay; i >= 1; i-- {
		out = append(out, snap(today.AddDate(0, 0, -7*i), wd))
	}
	for i := 0; i < WeeksEachWay; i++ {
		out = append(out, snap(today.AddDate(0, 0, 7*i), wd))
	}
	return out
}

// IsValidDate reports whether date is acceptable for the cell without
// confirmation. Cells without a fixed weekday accept every date.
func IsValidDate(date time.Time, c Cell) bool {
	wd, ok := weekdayOf(c)
	if !ok {
		return true
	}
	return date.Weekday() == wd
}

// DatesInMonth lists the cell's meeting dates inside the given month.
// Cells without a fixed weekday have no expected dates and yield nil.
func DatesInMonth(c Cell, year int, month time.Month) []time.Time {
	wd, ok := weekdayOf(c)
	if !ok {
		return nil
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7

	var out []time.Time
	for d := first.AddDate(0, 0, offset); d.Month() == month; d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}

// Contains reports whether day d is in dates.
func Contains(dates []time.Time, d time.Time) bool {
	d = Day(d)
	for _, x := range dates {
		if x.Equal(d) {
			return true
		}
	}
	return false
}
