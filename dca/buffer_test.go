// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBufferRounding(t *testing.T) {
	b := NewBuffer(decimal.Zero)

	// 0.1 + 0.2 style additions stay exact at four decimal places.
	step := decimal.RequireFromString("0.00015")
	for i := 0; i < 1000; i++ {
		b.Add(step)
	}
	// Each 0.00015 rounds to 0.0002 (banker's rounding rounds half away
	// from zero in shopspring), accumulated per-addition.
	want := decimal.RequireFromString("0.2")
	if v := b.Value(); !v.Equal(want) {
		t.Fatalf("buffer value = %s, want %s", v, want)
	}
}

func TestBufferAddReset(t *testing.T) {
	b := NewBuffer(decimal.RequireFromString("1.5"))
	if v := b.Value(); !v.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("carry value = %s, want 1.5", v)
	}

	v := b.Add(decimal.RequireFromString("2.25"))
	if !v.Equal(decimal.RequireFromString("3.75")) {
		t.Fatalf("after add = %s, want 3.75", v)
	}

	b.Reset()
	if v := b.Value(); !v.IsZero() {
		t.Fatalf("after reset = %s, want 0", v)
	}
}
