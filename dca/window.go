// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"time"
)

// LockWindow is a fixed daily wall-clock range during which earn-to-spot
// redemption is unavailable on the exchange. Start and End are offsets from
// midnight UTC; the window wraps midnight when Start > End. Grace is added
// past the window end before resuming, so a scheduler never wakes exactly at
// the boundary and races the exchange's own unlock.
type LockWindow struct {
	Start time.Duration
	End   time.Duration
	Grace time.Duration
}

// BinanceLockWindow is the observed daily Binance Earn rewards period,
// 23:48:00-00:10:00 UTC, with a 30 second grace past the end.
var BinanceLockWindow = &LockWindow{
	Start: 23*time.Hour + 48*time.Minute,
	End:   10 * time.Minute,
	Grace: 30 * time.Second,
}

const day = 24 * time.Hour

// IsLocked reports whether now falls inside the lock window and, when it
// does, how long to wait until redemptions are available again (window end
// plus grace). Membership is start-inclusive and end-exclusive.
func (w *LockWindow) IsLocked(now time.Time) (bool, time.Duration) {
	off := now.UTC().Sub(now.UTC().Truncate(day))

	var locked bool
	if w.Start > w.End {
		locked = off >= w.Start || off < w.End
	} else {
		locked = off >= w.Start && off < w.End
	}
	if !locked {
		return false, 0
	}
	if off >= w.Start && w.Start > w.End {
		// Before midnight: wait out the rest of the day, then the window end.
		return true, day - off + w.End + w.Grace
	}
	return true, w.End + w.Grace - off
}
