// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/admrply/dca-crypto/exchange"
	"github.com/admrply/dca-crypto/notify"
	"github.com/shopspring/decimal"
)

// Fee provisioning policy. The safe buffer keeps several trades' worth of
// the fee currency in spot so the scheduler does not redeem before every
// single trade.
var (
	safeFeeMultiplier = decimal.NewFromInt(5)
	safeTradesLimit   = decimal.NewFromInt(20)

	// DefaultMinRedeem is the smallest earn redemption the exchange accepts
	// for the fee currency.
	DefaultMinRedeem = decimal.RequireFromString("0.001")
)

// FeeManager keeps enough fee-currency liquidity in the spot sub-account
// before each trade. Every step here is best-effort: failures are logged or
// notified but never abort the trade, because the exchange can always fall
// back to charging fees from the traded currency itself.
type FeeManager struct {
	ex       exchange.Exchange
	notifier notify.Notifier

	feeRate decimal.Decimal

	// refCurrency prices the fee currency for the estimate (fee currency /
	// reference currency ticker).
	refCurrency string

	minRedeem decimal.Decimal

	warnDeadlineMap map[string]time.Time
}

func NewFeeManager(ex exchange.Exchange, notifier notify.Notifier, feeRate decimal.Decimal, refCurrency string) *FeeManager {
	return &FeeManager{
		ex:              ex,
		notifier:        notifier,
		feeRate:         feeRate,
		refCurrency:     refCurrency,
		minRedeem:       DefaultMinRedeem,
		warnDeadlineMap: make(map[string]time.Time),
	}
}

// EstimateFee returns the expected trading fee for a buy of quoteAmount, in
// fee currency units. Fails when the price feed is unreachable; callers
// proceed with the trade regardless.
func (m *FeeManager) EstimateFee(ctx context.Context, quoteAmount decimal.Decimal) (decimal.Decimal, error) {
	feeCcy := m.ex.FeeCurrency()
	if len(feeCcy) == 0 {
		return decimal.Zero, nil
	}
	price, err := m.ex.GetPrice(ctx, m.ex.Symbol(feeCcy, m.refCurrency))
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not get %s price for fee estimate: %w", feeCcy, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid %s price %s for fee estimate", feeCcy, price)
	}
	return quoteAmount.Mul(m.feeRate).Div(price), nil
}

// EnsureFeeLiquidity tops the spot fee-currency balance up to a safe buffer
// of several trades' worth of fees, redeeming from earn when short. Never
// returns an error: fee provisioning must not block the trade.
func (m *FeeManager) EnsureFeeLiquidity(ctx context.Context, feeEstimate decimal.Decimal) {
	feeCcy := m.ex.FeeCurrency()
	if len(feeCcy) == 0 || !feeEstimate.IsPositive() {
		return
	}
	safeBuffer := feeEstimate.Mul(safeFeeMultiplier)

	spot, err := m.ex.GetBalance(ctx, exchange.Spot, feeCcy)
	if err != nil {
		slog.Error("could not get spot fee balance; will attempt trade anyway", "currency", feeCcy, "err", err)
		return
	}
	if spot.Available.GreaterThanOrEqual(safeBuffer) {
		return
	}

	earn, err := m.ex.GetBalance(ctx, exchange.Earn, feeCcy)
	if err != nil {
		slog.Error("could not get earn fee balance; will attempt trade anyway", "currency", feeCcy, "err", err)
		return
	}

	total := earn.Available.Add(spot.Available)
	if remaining := total.Div(safeBuffer); remaining.LessThan(safeTradesLimit) {
		m.warn(ctx, "low-fee-balance",
			"Only enough %s for less than %s trades. Top up soon! Balance: %s. Safe trades: %s",
			feeCcy, safeTradesLimit, total, remaining.Round(0))
	}
	if total.LessThan(safeBuffer) {
		m.warn(ctx, "fee-shortfall",
			"%s balance is lower than the safe fee limit. Fees may come from the trading currency", feeCcy)
	}

	withdraw := decimal.Max(safeBuffer, m.minRedeem)
	switch {
	case earn.Available.GreaterThanOrEqual(withdraw):
		if err := m.ex.Redeem(ctx, earn.PositionID, withdraw, exchange.Fast); err != nil {
			slog.Error("could not redeem fee currency; will attempt trade anyway", "currency", feeCcy, "err", err)
		}
	case earn.Available.IsPositive():
		// Not enough for the full buffer; take whatever earn still holds.
		if err := m.ex.Redeem(ctx, earn.PositionID, earn.Available, exchange.Fast); err != nil {
			slog.Error("could not redeem fee currency; will attempt trade anyway", "currency", feeCcy, "err", err)
		}
	default:
		m.warn(ctx, "no-earn-fee-balance",
			"No %s savings left to withdraw. The trading currency will be used for fees", feeCcy)
	}
}

// warn sends a Warning notification at most once per hour per kind, so the
// hourly schedules cannot spam the operator with the same low-balance alert.
func (m *FeeManager) warn(ctx context.Context, key, format string, args ...any) {
	now := time.Now()
	if deadline, ok := m.warnDeadlineMap[key]; ok && now.Before(deadline) {
		return
	}
	m.warnDeadlineMap[key] = now.Add(time.Hour)
	m.notifier.Send(ctx, now, notify.Warning, fmt.Sprintf(format, args...))
}
