// Package hrtime reads a monotonic clock, unaffected by the wall clock
// adjustments, for the elapsed time measurements.
package hrtime

import "time"

// Instant is a reading of the monotonic clock in nanoseconds. Only the
// difference of two instants is meaningful.
type Instant int64

func (i Instant) Elapsed() time.Duration {
	return Since(i)
}

func Since(begin Instant) time.Duration {
	return time.Duration(Now() - begin)
}
