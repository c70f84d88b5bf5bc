package util

import "time"

// DaySequence returns the consecutive UTC days from start to end inclusive,
// truncated to midnight. It returns nil when end is before start.
func DaySequence(start, end time.Time) []time.Time {
	start = midnightUTC(start)
	end = midnightUTC(end)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WeekdaySequence returns the days from start to end inclusive with
// Saturdays and Sundays removed, for callers that want trading-day spacing.
func WeekdaySequence(start, end time.Time) []time.Time {
	var days []time.Time
	for _, d := range DaySequence(start, end) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
