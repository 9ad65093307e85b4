package meetingdates

import "time"

// Policy decides which valid date a new report starts with when today is
// not a meeting day.
//
// PreferPast picks the most recent meeting before today (the report is
// being filled in after the meeting). Otherwise the next meeting after
// today is picked.
type Policy struct {
	PreferPast bool
}

// FillPolicy is the canonical policy: reports are usually written after
// the meeting happened.
var FillPolicy = Policy{PreferPast: true}

// UpcomingPolicy prefers the next meeting.
var UpcomingPolicy = Policy{PreferPast: false}

// ParsePolicy maps "past" and "future" to a Policy. Anything else returns
// def.
func ParsePolicy(s string, def Policy) Policy {
	switch s {
	case "past":
		return FillPolicy
	case "future":
		return UpcomingPolicy
	default:
		return def
	}
}

// DefaultDate returns the date to pre-fill when c becomes the selected cell.
//
//   - no cell: nil
//   - cell without weekday: today
//   - today is a meeting day: today
//   - otherwise the nearest meeting before (PreferPast) or after today,
//     falling back to the first enumerated date and finally to today.
func (p Policy) DefaultDate(c Cell, today time.Time) *time.Time {
	if c == nil {
		return nil
	}
	today = Day(today)
	if _, ok := c.MeetingWeekday(); !ok {
		return &today
	}

	dates := ValidDates(c, today)
	if Contains(dates, today) {
		return &today
	}

	if p.PreferPast {
		for i := len(dates) - 1; i >= 0; i-- {
			if dates[i].Before(today) {
				d := dates[i]
				return &d
			}
		}
	} else {
		for _, d := range dates {
			if d.After(today) {
				return &d
			}
		}
	}

	if len(dates) > 0 {
		d := dates[0]
		return &d
	}
	return &today
}
