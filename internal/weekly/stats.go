package weekly

import (
	"math"
	"time"
)

// weekWindowDays is how far back from the Friday anchor a bar still counts as
// part of the current week for high/low purposes. The 4-day cutoff assumes
// five trading days per week; holiday-shortened weeks mis-window slightly, and
// that behavior is kept as-is because the source data carries no holiday
// calendar to do better with.
const weekWindowDays = 4

// ComputeStats derives the weekly statistics from a daily series and the two
// Friday anchors. It returns false when either anchor cannot be resolved to a
// trading day or when the series holds fewer than two bars - a change rate
// needs two distinct anchor points, so a thinner series yields no partial
// result.
func ComputeStats(bars []DailyBar, thisFriday, priorFriday time.Time) (WeeklyStats, bool) {
	if len(bars) < 2 {
		return WeeklyStats{}, false
	}

	thisBar, ok := ClosestTradingDay(thisFriday, bars)
	if !ok {
		return WeeklyStats{}, false
	}
	priorBar, ok := ClosestTradingDay(priorFriday, bars)
	if !ok {
		return WeeklyStats{}, false
	}

	anchor := truncateToDay(thisFriday)
	weekHigh, weekLow := int64(0), int64(0)
	windowSeen := false
	for _, b := range bars {
		d := truncateToDay(b.Date)
		if d.After(anchor) {
			continue
		}
		if daysBetween(d, anchor) > weekWindowDays {
			continue
		}
		if !windowSeen {
			weekHigh, weekLow = b.High, b.Low
			windowSeen = true
			continue
		}
		if b.High > weekHigh {
			weekHigh = b.High
		}
		if b.Low < weekLow {
			weekLow = b.Low
		}
	}
	if !windowSeen {
		// Provider gaps can leave the window empty even though the anchor
		// resolved to an earlier bar; fall back to the anchor close.
		weekHigh, weekLow = thisBar.Close, thisBar.Close
	}

	changeRate := 0.0
	if priorBar.Close != 0 {
		changeRate = round2(float64(thisBar.Close-priorBar.Close) / float64(priorBar.Close) * 100)
	}

	return WeeklyStats{
		ThisWeekClose:  thisBar.Close,
		PriorWeekClose: priorBar.Close,
		ChangeRate:     changeRate,
		WeekHigh:       weekHigh,
		WeekLow:        weekLow,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
