// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"time"
)

// Sleep blocks the caller for the given duration. Returns early when the
// input context is canceled.
func Sleep(ctx context.Context, d time.Duration) {
	sctx, scancel := context.WithTimeout(ctx, d)
	<-sctx.Done()
	scancel()
}

// SleepUntil blocks the caller till the given point in time. Returns early
// when the input context is canceled.
func SleepUntil(ctx context.Context, at time.Time) {
	if d := time.Until(at); d > 0 {
		Sleep(ctx, d)
	}
}

// Retry runs the input function till it succeeds or the input context is
// canceled. Returns the last non-nil error from the function when the
// context expires before a success.
func Retry(ctx context.Context, interval time.Duration, f func() error) (err error) {
	for err = f(); err != nil && context.Cause(ctx) == nil; err = f() {
		Sleep(ctx, interval)
	}
	return
}

// RetryTimeout is Retry with an upper bound on the total wait time.
func RetryTimeout(ctx context.Context, interval, timeout time.Duration, f func() error) error {
	sctx, scancel := context.WithTimeout(ctx, timeout)
	defer scancel()
	return Retry(sctx, interval, f)
}
