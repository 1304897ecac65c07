//go:build unix

package hrtime

import (
	"github.com/samber/lo"
	"golang.org/x/sys/unix"
)

func Now() Instant {
	ts := unix.Timespec{}
	lo.Must0(unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts))
	return Instant(ts.Nano())
}
