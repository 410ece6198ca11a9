package service

// windowSec is the trailing rate-limit window, measured from the newest
// creation attempt rather than a calendar boundary.
const windowSec = 24 * 60 * 60

// allowCreation applies the rolling-window creation cap to a bounded,
// most-recent-first list of prior creation timestamps. When the limit-th
// most recent creation is still inside the trailing 24h window the attempt
// is rejected and the list is returned unchanged; otherwise now is pushed to
// the front and the list truncated back to the limit.
//
// Pure function of (list, limit, now) so the policy is testable without a
// store. Bursts below the limit pass; at most limit creations fit in any
// trailing 24h window.
func allowCreation(times []int64, limit int, now int64) ([]int64, bool) {
	if limit <= 0 {
		return times, false
	}
	if len(times) >= limit && now-times[limit-1] < windowSec {
		return times, false
	}
	times = append([]int64{now}, times...)
	if len(times) > limit {
		times = times[:limit]
	}
	return times, true
}
