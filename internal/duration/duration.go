// Package duration parses human-readable period strings ("3d 2h") into
// minutes and renders second counts back into human-readable durations.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Minute counts per unit. Years are 365 days and a month is a twelfth of a
// year (~30.4 days). Format uses the same scale so that parsing its output
// yields the original total.
const (
	minuteMin = 1
	hourMin   = 60 * minuteMin
	dayMin    = 24 * hourMin
	yearMin   = 365 * dayMin
	monthMin  = yearMin / 12
)

var tokenRe = regexp.MustCompile(`(\d+)([mhdMy])`)

var unitMinutes = map[string]int64{
	"m": minuteMin,
	"h": hourMin,
	"d": dayMin,
	"M": monthMin,
	"y": yearMin,
}

// Minutes converts a period string of <integer><unit> tokens, separated by
// spaces or simply concatenated ("3d 2h", "1y2M3d"), to a total minute
// count. Unit letters are m, h, d, M (month) and y. Malformed tokens and
// unrecognised units contribute nothing; this parser never fails, it only
// degrades to a smaller total.
func Minutes(period string) int64 {
	var total int64
	for _, m := range tokenRe.FindAllStringSubmatch(period, -1) {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		total += n * unitMinutes[m[2]]
	}
	return total
}

// Format decomposes a second count into largest-to-smallest calendar units
// and concatenates the nonzero ones, e.g. "1y2M3d". Sub-minute remainders
// are dropped; a duration under a minute formats as "".
func Format(secs int64) string {
	mins := secs / 60
	units := []struct {
		mins   int64
		suffix string
	}{
		{yearMin, "y"},
		{monthMin, "M"},
		{dayMin, "d"},
		{hourMin, "h"},
		{minuteMin, "m"},
	}
	var b strings.Builder
	for _, u := range units {
		n := mins / u.mins
		mins -= n * u.mins
		if n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.suffix)
		}
	}
	return b.String()
}

// Display units for Closest. The 365.25-day calendar year keeps long spans
// honest in "time remaining/ago" strings.
const (
	minuteSec = 60
	hourSec   = 60 * minuteSec
	daySec    = 24 * hourSec
)

const (
	yearSec  = float64(daySec) * 365.25
	monthSec = yearSec / 12
)

// Closest reports only the single largest nonzero unit of a second count,
// such as "3d", for compact display. Durations under a minute report in
// seconds; zero is "0s". Negative inputs are treated by magnitude, so a
// time in the past and one the same distance in the future render alike.
func Closest(secs int64) string {
	s := float64(secs)
	if s < 0 {
		s = -s
	}
	units := []struct {
		secs   float64
		suffix string
	}{
		{yearSec, "y"},
		{monthSec, "M"},
		{daySec, "d"},
		{hourSec, "h"},
		{minuteSec, "m"},
		{1, "s"},
	}
	for _, u := range units {
		if s >= u.secs {
			return fmt.Sprintf("%d%s", int64(s/u.secs), u.suffix)
		}
	}
	return "0s"
}
