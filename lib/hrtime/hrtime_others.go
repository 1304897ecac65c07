//go:build !unix

package hrtime

import "time"

var appStartTime = time.Now()

// Now relies on the monotonic reading kept by time.Time.
func Now() Instant {
	return Instant(time.Since(appStartTime))
}
