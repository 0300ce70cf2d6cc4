// Copyright (c) 2025 BVK Chaitanya

package binance

import "time"

func timeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Now()
	}
	return time.UnixMilli(ms).UTC()
}
