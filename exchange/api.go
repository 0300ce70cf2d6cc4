// Copyright (c) 2023 BVK Chaitanya

// Package exchange defines the operations the purchase schedulers need from
// an exchange backend. Concrete implementations live in the binance and
// coinbase packages.
package exchange

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable indicates a transport or authentication failure reaching
// the exchange. Callers decide whether it is fatal for the current trade.
var ErrUnavailable = errors.New("exchange unavailable")

// ErrUnsupported indicates the exchange has no such operation (e.g., earn
// sub-accounts on exchanges without a flexible-savings product).
var ErrUnsupported = errors.New("operation not supported by exchange")

type AccountKind string

const (
	// Spot holds the immediately tradable balance.
	Spot AccountKind = "SPOT"

	// Earn holds the interest-bearing balance that must be redeemed into
	// Spot before it can be traded.
	Earn AccountKind = "EARN"
)

type RedeemSpeed string

const (
	Fast   RedeemSpeed = "FAST"
	Normal RedeemSpeed = "NORMAL"
)

// Balance is a point-in-time view of one currency in one sub-account.
// PositionID is non-empty only for Earn balances; redemptions are addressed
// by position, not by currency symbol.
type Balance struct {
	Currency string

	Available decimal.Decimal

	PositionID string
}

// FillReport describes a completed market buy.
type FillReport struct {
	Exchange string
	Symbol   string

	ClientOrderID string

	FilledSize   decimal.Decimal
	AvgFillPrice decimal.Decimal
	QuoteSpent   decimal.Decimal

	Time time.Time
}

type Exchange interface {
	io.Closer

	ExchangeName() string

	// Symbol returns the exchange-specific trading symbol for a base/quote
	// currency pair (e.g., "BTCGBP" on Binance, "BTC-GBP" on Coinbase).
	Symbol(base, quote string) string

	// MinOrderValue returns the minimum order value in quote currency units.
	MinOrderValue() decimal.Decimal

	// FeeCurrency returns the currency trading fees are charged in when the
	// exchange supports a discount fee asset, or "" when fees are always
	// taken from the traded currencies.
	FeeCurrency() string

	GetBalance(ctx context.Context, kind AccountKind, currency string) (*Balance, error)

	Redeem(ctx context.Context, positionID string, amount decimal.Decimal, speed RedeemSpeed) error

	PlaceMarketBuy(ctx context.Context, clientOrderID, symbol string, quoteAmount decimal.Decimal) (*FillReport, error)

	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
