// Package backoff provides the fixed wait schedule that drives repeated
// status queries for an in-flight transaction.
package backoff

import "time"

// Schedule is an ordered, finite list of wait durations. Entry n is the
// delay before status query n. Once the schedule is exhausted no further
// automatic queries are issued.
type Schedule []time.Duration

// DefaultSchedule returns the standard polling schedule: front-loaded short
// delays because most settlements land within the first two minutes, then a
// flat 60s tail that bounds provider load for long-running transactions.
func DefaultSchedule() Schedule {
	return Schedule{
		15 * time.Second,
		30 * time.Second,
		30 * time.Second,
		45 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
}

// DelayForAttempt returns the wait before attempt n (zero-based). The second
// return value is false once n runs past the end of the schedule.
func (s Schedule) DelayForAttempt(n int) (time.Duration, bool) {
	if n < 0 || n >= len(s) {
		return 0, false
	}
	return s[n], true
}

// Len returns the number of scheduled attempts.
func (s Schedule) Len() int {
	return len(s)
}
