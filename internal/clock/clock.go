// Package clock converts between wall-clock time and the compact second
// counter used as entity ids throughout the system. Counting seconds from a
// recent epoch keeps the base-62 display ids short.
package clock

import "time"

// Epoch is the zero point of all stored timestamps.
var Epoch = time.Date(2021, time.April, 1, 0, 0, 0, 0, time.UTC)

// Now returns the current time in seconds since Epoch.
func Now() int64 {
	return Sec(time.Now())
}

// Sec converts t to seconds since Epoch.
func Sec(t time.Time) int64 {
	return int64(t.Sub(Epoch) / time.Second)
}

// Time converts seconds since Epoch back to wall-clock time.
func Time(sec int64) time.Time {
	return Epoch.Add(time.Duration(sec) * time.Second)
}
