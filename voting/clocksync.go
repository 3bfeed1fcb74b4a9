package voting

import (
	"strconv"
	"time"
)

// Clock reconciliation helpers. Clients cannot trust their own clocks:
// the countdown every viewer renders is computed from the server-stamped
// snapshot times corrected by the measured offset. These are pure functions
// so the same definition serves the server, the tests, and any Go client.

// Offset estimates the server/client clock difference from a snapshot's
// server timestamp and the local receive time. Recomputed on every
// snapshot, since the estimate drifts.
func Offset(serverTime, localTime time.Time) time.Duration {
	return serverTime.Sub(localTime)
}

// CorrectedNow applies a previously measured offset to a local instant.
func CorrectedNow(localNow time.Time, offset time.Duration) time.Time {
	return localNow.Add(offset)
}

// RemainingSeconds is the whole seconds left until end, rounded up and
// clamped at zero. A client whose countdown hits zero stops decrementing
// and waits for the server's FINISHED transition; it never declares the
// vote over itself.
func RemainingSeconds(end, correctedNow time.Time) int {
	d := end.Sub(correctedNow)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// InstanceKey identifies one vote instance by its start timestamp. Clients
// key their "already voted" marker on it, so a new Start always re-enables
// voting even when stale state survives in the browser.
func InstanceKey(start time.Time) string {
	return strconv.FormatInt(start.UnixMilli(), 10)
}
