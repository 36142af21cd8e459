// Package timefmt formats playback positions and catalog dates for display.
package timefmt

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	second = time.Second
	minute = 60 * second
	hour   = 60 * minute
	day    = 24 * hour
	week   = 7 * day
	month  = 30 * day
	year   = 365 * day
)

// agoMagnitudes buckets an elapsed duration into the largest whole unit.
// Counts of exactly one use the singular form; anything under two seconds
// reads as "1 second ago".
var agoMagnitudes = []humanize.RelTimeMagnitude{
	{D: 2 * second, Format: "1 second %s", DivBy: 1},
	{D: minute, Format: "%d seconds %s", DivBy: second},
	{D: 2 * minute, Format: "1 minute %s", DivBy: 1},
	{D: hour, Format: "%d minutes %s", DivBy: minute},
	{D: 2 * hour, Format: "1 hour %s", DivBy: 1},
	{D: day, Format: "%d hours %s", DivBy: hour},
	{D: 2 * day, Format: "1 day %s", DivBy: 1},
	{D: week, Format: "%d days %s", DivBy: day},
	{D: 2 * week, Format: "1 week %s", DivBy: 1},
	{D: month, Format: "%d weeks %s", DivBy: week},
	{D: 2 * month, Format: "1 month %s", DivBy: 1},
	{D: year, Format: "%d months %s", DivBy: month},
	{D: 2 * year, Format: "1 year %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d years %s", DivBy: year},
}

// FormatElapsed renders a position in seconds as "m:ss".
// Non-finite input renders as "0:00".
func FormatElapsed(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	if seconds < 0 {
		seconds = 0
	}
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// TimeAgo returns a relative description of t such as "3 days ago".
// An absent timestamp yields the empty string.
func TimeAgo(t *time.Time) string {
	return TimeAgoFrom(t, time.Now())
}

// TimeAgoFrom is TimeAgo with an explicit reference time.
func TimeAgoFrom(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	// Only whole seconds count.
	elapsed := now.Sub(*t).Truncate(time.Second)
	if elapsed <= 0 {
		return "1 second ago"
	}
	return humanize.CustomRelTime(now.Add(-elapsed), now, "ago", "from now", agoMagnitudes)
}
