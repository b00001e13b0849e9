package weekly

import (
	"fmt"
	"time"
)

// Date formats. Anchor dates use the finance portal's daily-table format so
// stored anchors can be compared against scraped rows verbatim; week keys use
// ISO dates.
const (
	AnchorDateFormat = "2006.01.02"
	WeekFormat       = "2006-01-02"
)

// FridayAnchors returns the two Friday anchor dates relative to now: the most
// recently completed trading week's Friday and the Friday seven days before it.
// On a Friday the anchor is today; Monday through Thursday report on the
// previous week, never the upcoming Friday.
func FridayAnchors(now time.Time) (thisFriday, priorFriday time.Time) {
	var back int
	switch wd := now.Weekday(); wd {
	case time.Friday:
		back = 0
	case time.Saturday:
		back = 1
	case time.Sunday:
		back = 2
	default: // Monday..Thursday
		back = int(wd) + 2
	}

	thisFriday = truncateToDay(now).AddDate(0, 0, -back)
	priorFriday = thisFriday.AddDate(0, 0, -7)
	return thisFriday, priorFriday
}

// CurrentWeekMonday returns the Monday of now's calendar week as a week key.
func CurrentWeekMonday(now time.Time) string {
	wd := int(now.Weekday())
	if wd == 0 { // Sunday belongs to the week that started six days earlier
		wd = 7
	}
	monday := truncateToDay(now).AddDate(0, 0, -(wd - 1))
	return monday.Format(WeekFormat)
}

// WeekInfo derives the ISO calendar year and week number from a week key.
func WeekInfo(week string) (year, number int, err error) {
	t, err := time.Parse(WeekFormat, week)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid week %q: %w", week, err)
	}
	year, number = t.ISOWeek()
	return year, number, nil
}

// ClosestTradingDay maps an anchor date to the nearest bar at or before it.
// An exact date match wins; otherwise the bar with the smallest distance below
// the target is chosen. Returns false when no bar exists at or before the
// target - the caller must treat that as missing data, not as a zero price.
func ClosestTradingDay(target time.Time, bars []DailyBar) (DailyBar, bool) {
	target = truncateToDay(target)

	for _, b := range bars {
		if truncateToDay(b.Date).Equal(target) {
			return b, true
		}
	}

	var closest DailyBar
	minDiff := -1
	for _, b := range bars {
		d := truncateToDay(b.Date)
		if d.After(target) {
			continue
		}
		diff := daysBetween(d, target)
		if minDiff < 0 || diff < minDiff {
			minDiff = diff
			closest = b
		}
	}

	if minDiff < 0 {
		return DailyBar{}, false
	}
	return closest, true
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole days from a to b, both at midnight, a <= b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
