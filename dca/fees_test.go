// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/admrply/dca-crypto/exchange"
	"github.com/shopspring/decimal"
)

func TestEstimateFee(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.price = decimal.NewFromInt(500) // BNBGBP

	m := NewFeeManager(ex, &fakeNotifier{}, decimal.RequireFromString("0.001"), "GBP")

	// 100 GBP * 0.001 fee / 500 GBP per BNB = 0.0002 BNB
	fee, err := m.EstimateFee(ctx, decimal.NewFromInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.RequireFromString("0.0002"); !fee.Equal(want) {
		t.Fatalf("fee = %s, want %s", fee, want)
	}
}

func TestEstimateFeeNoFeeCurrency(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.feeCcy = ""

	m := NewFeeManager(ex, &fakeNotifier{}, decimal.RequireFromString("0.001"), "GBP")
	fee, err := m.EstimateFee(ctx, decimal.NewFromInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if !fee.IsZero() {
		t.Fatalf("fee = %s, want 0", fee)
	}
}

func TestEnsureFeeLiquidityTopsUp(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.spot["BNB"] = decimal.RequireFromString("0.0001")
	ex.earn["BNB"] = &exchange.Balance{
		Currency:   "BNB",
		Available:  decimal.NewFromInt(1),
		PositionID: "bnb-flexible",
	}

	m := NewFeeManager(ex, &fakeNotifier{}, decimal.RequireFromString("0.001"), "GBP")

	// Safe buffer is 5x the estimate = 0.001, equal to the minimum redeem.
	m.EnsureFeeLiquidity(ctx, decimal.RequireFromString("0.0002"))

	if len(ex.redeems) != 1 {
		t.Fatalf("expected one redeem, got %v", ex.redeems)
	}
	if want := decimal.RequireFromString("0.001"); !ex.redeems[0].amount.Equal(want) {
		t.Fatalf("redeem amount = %s, want %s", ex.redeems[0].amount, want)
	}
}

func TestEnsureFeeLiquidityRedeemsRemainder(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.spot["BNB"] = decimal.Zero
	ex.earn["BNB"] = &exchange.Balance{
		Currency:   "BNB",
		Available:  decimal.RequireFromString("0.0004"),
		PositionID: "bnb-flexible",
	}

	n := &fakeNotifier{}
	m := NewFeeManager(ex, n, decimal.RequireFromString("0.001"), "GBP")
	m.EnsureFeeLiquidity(ctx, decimal.RequireFromString("0.0002"))

	// Earn holds less than the withdraw target; everything left is taken.
	if len(ex.redeems) != 1 {
		t.Fatalf("expected one redeem, got %v", ex.redeems)
	}
	if want := decimal.RequireFromString("0.0004"); !ex.redeems[0].amount.Equal(want) {
		t.Fatalf("redeem amount = %s, want %s", ex.redeems[0].amount, want)
	}

	// Total balance is below both warning thresholds.
	var sawLow, sawShortfall bool
	for _, msg := range n.messages() {
		if strings.Contains(msg, "Top up soon") {
			sawLow = true
		}
		if strings.Contains(msg, "safe fee limit") {
			sawShortfall = true
		}
	}
	if !sawLow || !sawShortfall {
		t.Fatalf("expected low-balance and shortfall warnings, got %v", n.messages())
	}
}

func TestEnsureFeeLiquidityNeverFails(t *testing.T) {
	ctx := context.Background()

	// Every balance read and redeem fails; the call must still complete.
	ex := newFakeExchange()
	ex.spotErr = errors.New("spot unavailable")
	ex.earnErr = errors.New("earn unavailable")
	ex.redeemErr = errors.New("redeem unavailable")

	m := NewFeeManager(ex, &fakeNotifier{}, decimal.RequireFromString("0.001"), "GBP")
	m.EnsureFeeLiquidity(ctx, decimal.RequireFromString("0.0002"))
}

func TestFeeWarningThrottle(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.spot["BNB"] = decimal.Zero
	// No earn balance at all: every call warns about the empty earn wallet.

	n := &fakeNotifier{}
	m := NewFeeManager(ex, n, decimal.RequireFromString("0.001"), "GBP")

	for i := 0; i < 5; i++ {
		m.EnsureFeeLiquidity(ctx, decimal.RequireFromString("0.0002"))
	}

	var count int
	for _, msg := range n.messages() {
		if strings.Contains(msg, "No BNB savings left") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("warning sent %d times in an hour, want 1", count)
	}
}
