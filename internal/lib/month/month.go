// Package month implements calendar-month date arithmetic for subscription
// terms. time.AddDate normalizes day-of-month overflow (Jan 31 + 1 month
// becomes Mar 2/3), which is wrong for billing periods, so AddMonths clamps
// to the last day of the target month instead.
package month

import "time"

// AddMonths returns t shifted forward by the given number of calendar
// months. If the day of month does not exist in the target month, the
// result is clamped to the last day of that month
// (2024-01-31 + 1 month = 2024-02-29).
func AddMonths(t time.Time, months int) time.Time {
	year, mon, day := t.Date()

	total := int(mon) - 1 + months
	year += total / 12
	mon = time.Month(total%12 + 1)
	if total < 0 {
		// integer division truncates toward zero, fix up negative offsets
		year--
		mon += 12
	}

	if last := daysIn(year, mon); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(year, mon, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// DaysLeft returns the number of whole days remaining until deadline,
// rounded up. A deadline later today counts as 1.
func DaysLeft(now, deadline time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

func daysIn(year int, mon time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, mon+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
