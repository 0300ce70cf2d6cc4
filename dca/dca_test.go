// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/admrply/dca-crypto/exchange"
	"github.com/admrply/dca-crypto/notify"
	"github.com/shopspring/decimal"
)

// fakeExchange is a scriptable exchange.Exchange for the engine tests.
type fakeExchange struct {
	name     string
	minOrder decimal.Decimal
	feeCcy   string

	spot map[string]decimal.Decimal
	earn map[string]*exchange.Balance

	price decimal.Decimal

	spotErr   error
	earnErr   error
	priceErr  error
	redeemErr error
	buyErr    error

	redeems []redeemCall
	buys    []buyCall
}

type redeemCall struct {
	positionID string
	amount     decimal.Decimal
	speed      exchange.RedeemSpeed
}

type buyCall struct {
	clientOrderID string
	symbol        string
	quoteAmount   decimal.Decimal
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		name:     "fake",
		minOrder: decimal.NewFromInt(10),
		feeCcy:   "BNB",
		spot:     make(map[string]decimal.Decimal),
		earn:     make(map[string]*exchange.Balance),
		price:    decimal.NewFromInt(500),
	}
}

func (f *fakeExchange) Close() error {
	return nil
}

func (f *fakeExchange) ExchangeName() string {
	return f.name
}

func (f *fakeExchange) Symbol(base, quote string) string {
	return base + quote
}

func (f *fakeExchange) MinOrderValue() decimal.Decimal {
	return f.minOrder
}

func (f *fakeExchange) FeeCurrency() string {
	return f.feeCcy
}

func (f *fakeExchange) GetBalance(ctx context.Context, kind exchange.AccountKind, currency string) (*exchange.Balance, error) {
	switch kind {
	case exchange.Spot:
		if f.spotErr != nil {
			return nil, f.spotErr
		}
		return &exchange.Balance{Currency: currency, Available: f.spot[currency]}, nil
	case exchange.Earn:
		if f.earnErr != nil {
			return nil, f.earnErr
		}
		if b, ok := f.earn[currency]; ok {
			return b, nil
		}
		return &exchange.Balance{Currency: currency}, nil
	}
	return nil, os.ErrInvalid
}

func (f *fakeExchange) Redeem(ctx context.Context, positionID string, amount decimal.Decimal, speed exchange.RedeemSpeed) error {
	if f.redeemErr != nil {
		return f.redeemErr
	}
	f.redeems = append(f.redeems, redeemCall{positionID, amount, speed})
	// Redeemed funds land in spot.
	for ccy, b := range f.earn {
		if b.PositionID == positionID {
			b.Available = b.Available.Sub(amount)
			f.spot[ccy] = f.spot[ccy].Add(amount)
		}
	}
	return nil
}

func (f *fakeExchange) PlaceMarketBuy(ctx context.Context, clientOrderID, symbol string, quoteAmount decimal.Decimal) (*exchange.FillReport, error) {
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	f.buys = append(f.buys, buyCall{clientOrderID, symbol, quoteAmount})
	return &exchange.FillReport{
		Exchange:      f.name,
		Symbol:        symbol,
		ClientOrderID: clientOrderID,
		FilledSize:    quoteAmount.Div(f.price),
		AvgFillPrice:  f.price,
		QuoteSpent:    quoteAmount,
		Time:          time.Now(),
	}, nil
}

func (f *fakeExchange) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if f.priceErr != nil {
		return decimal.Zero, f.priceErr
	}
	return f.price, nil
}

// fakeNotifier collects delivered messages.
type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Send(ctx context.Context, at time.Time, severity notify.Severity, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, fmt.Sprintf("%s: %s", severity, text))
	return nil
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

// fakeHistory is an in-memory TradeHistory.
type fakeHistory struct {
	fills []*exchange.FillReport

	lastErr error
}

func (h *fakeHistory) RecordFill(ctx context.Context, fill *exchange.FillReport) error {
	h.fills = append(h.fills, fill)
	return nil
}

func (h *fakeHistory) LastFillTime(ctx context.Context, exchangeName, symbol string) (time.Time, error) {
	if h.lastErr != nil {
		return time.Time{}, h.lastErr
	}
	var last time.Time
	for _, fill := range h.fills {
		if fill.Exchange == exchangeName && fill.Symbol == symbol && fill.Time.After(last) {
			last = fill.Time
		}
	}
	if last.IsZero() {
		return time.Time{}, os.ErrNotExist
	}
	return last, nil
}
