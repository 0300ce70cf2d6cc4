// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admrply/dca-crypto/exchange"
	"github.com/admrply/dca-crypto/notify"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds indicates the spot and earn balances together
	// cannot cover the required quote amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRedeemFailed indicates an earn-to-spot redemption was rejected.
	ErrRedeemFailed = errors.New("redeem failed")
)

// earnTopUpThreshold is the earn balance, in quote currency units, below
// which the operator is asked to top up before trades start failing.
var earnTopUpThreshold = decimal.NewFromInt(30)

// Funder guarantees the quote currency itself is sitting in the spot
// sub-account before a buy. Unlike fee provisioning, a shortfall here aborts
// the trade.
type Funder struct {
	ex       exchange.Exchange
	notifier notify.Notifier
}

func NewFunder(ex exchange.Exchange, notifier notify.Notifier) *Funder {
	return &Funder{ex: ex, notifier: notifier}
}

// EnsureQuoteLiquidity makes the required amount of currency available in
// the spot sub-account, redeeming the shortfall from earn when necessary.
// Any returned error means the trade must not be attempted.
func (f *Funder) EnsureQuoteLiquidity(ctx context.Context, currency string, required decimal.Decimal) error {
	spot, err := f.ex.GetBalance(ctx, exchange.Spot, currency)
	if err != nil {
		return fmt.Errorf("could not get spot %s balance: %w", currency, err)
	}
	if spot.Available.GreaterThanOrEqual(required) {
		return nil
	}

	earn, err := f.ex.GetBalance(ctx, exchange.Earn, currency)
	if err != nil {
		return fmt.Errorf("could not get earn %s balance: %w", currency, err)
	}
	if earn.Available.LessThanOrEqual(earnTopUpThreshold) {
		f.notifier.Send(ctx, time.Now(), notify.Warning,
			fmt.Sprintf("Only %s %s left in the earn wallet. Top up today so trades don't fail tomorrow.",
				earn.Available, currency))
	}
	if earn.Available.Add(spot.Available).LessThan(required) {
		return fmt.Errorf("%w: %s available %s, required %s",
			ErrInsufficientFunds, currency, earn.Available.Add(spot.Available), required)
	}

	shortfall := required.Sub(spot.Available)
	if err := f.ex.Redeem(ctx, earn.PositionID, shortfall, exchange.Fast); err != nil {
		return fmt.Errorf("%w: could not redeem %s %s: %v", ErrRedeemFailed, shortfall, currency, err)
	}
	return nil
}
