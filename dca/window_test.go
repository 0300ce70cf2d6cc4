// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"testing"
	"time"
)

func at(hh, mm, ss int) time.Time {
	return time.Date(2025, time.March, 14, hh, mm, ss, 0, time.UTC)
}

func TestLockWindow(t *testing.T) {
	w := BinanceLockWindow

	tests := []struct {
		now    time.Time
		locked bool
		wait   time.Duration
	}{
		{at(23, 47, 59), false, 0},
		{at(23, 48, 0), true, 22*time.Minute + 30*time.Second},
		{at(23, 50, 0), true, 20*time.Minute + 30*time.Second},
		{at(0, 0, 0), true, 10*time.Minute + 30*time.Second},
		{at(0, 5, 0), true, 5*time.Minute + 30*time.Second},
		{at(0, 9, 59), true, 31 * time.Second},
		{at(0, 10, 0), false, 0},
		{at(12, 0, 0), false, 0},
	}
	for _, test := range tests {
		locked, wait := w.IsLocked(test.now)
		if locked != test.locked {
			t.Errorf("IsLocked(%v) = %t, want %t", test.now, locked, test.locked)
			continue
		}
		if wait != test.wait {
			t.Errorf("IsLocked(%v) wait = %v, want %v", test.now, wait, test.wait)
		}
	}
}

func TestLockWindowNonWrapping(t *testing.T) {
	w := &LockWindow{
		Start: 2 * time.Hour,
		End:   3 * time.Hour,
		Grace: time.Minute,
	}

	if locked, _ := w.IsLocked(at(1, 59, 59)); locked {
		t.Fatalf("01:59:59 must not be locked")
	}
	locked, wait := w.IsLocked(at(2, 30, 0))
	if !locked {
		t.Fatalf("02:30:00 must be locked")
	}
	if want := 31 * time.Minute; wait != want {
		t.Fatalf("wait = %v, want %v", wait, want)
	}
	if locked, _ := w.IsLocked(at(3, 0, 0)); locked {
		t.Fatalf("window end must be exclusive")
	}
}
