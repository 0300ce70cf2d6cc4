// Copyright (c) 2025 BVK Chaitanya

// Package binance implements the exchange.Exchange interface for the
// Binance spot and flexible-savings ("Earn") accounts.
package binance

import (
	"context"
	"fmt"
	"os"

	"github.com/admrply/dca-crypto/binance/internal"
	"github.com/admrply/dca-crypto/exchange"
	"github.com/shopspring/decimal"
)

type Credentials struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

func (v *Credentials) Check() error {
	if len(v.Key) == 0 || len(v.Secret) == 0 {
		return fmt.Errorf("binance api key and secret cannot be empty")
	}
	return nil
}

// minOrderValue is the exchange's MIN_NOTIONAL for the fiat markets this
// bot trades.
var minOrderValue = decimal.NewFromInt(10)

type Exchange struct {
	client *internal.Client
}

var _ exchange.Exchange = (*Exchange)(nil)

func New(creds *Credentials) (*Exchange, error) {
	if err := creds.Check(); err != nil {
		return nil, err
	}
	client, err := internal.New(creds.Key, creds.Secret, nil /* opts */)
	if err != nil {
		return nil, err
	}
	return &Exchange{client: client}, nil
}

func (ex *Exchange) Close() error {
	return ex.client.Close()
}

func (ex *Exchange) ExchangeName() string {
	return "binance"
}

func (ex *Exchange) Symbol(base, quote string) string {
	return base + quote
}

func (ex *Exchange) MinOrderValue() decimal.Decimal {
	return minOrderValue
}

func (ex *Exchange) FeeCurrency() string {
	return "BNB"
}

func (ex *Exchange) GetBalance(ctx context.Context, kind exchange.AccountKind, currency string) (*exchange.Balance, error) {
	switch kind {
	case exchange.Spot:
		return ex.getSpotBalance(ctx, currency)
	case exchange.Earn:
		return ex.getEarnBalance(ctx, currency)
	}
	return nil, os.ErrInvalid
}

func (ex *Exchange) getSpotBalance(ctx context.Context, currency string) (*exchange.Balance, error) {
	coins, err := ex.client.GetSpotBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not get spot balances: %v", exchange.ErrUnavailable, err)
	}
	for _, coin := range coins {
		if coin.Coin != currency {
			continue
		}
		free, err := decimal.NewFromString(coin.Free)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s free balance %q: %w", currency, coin.Free, err)
		}
		return &exchange.Balance{Currency: currency, Available: free}, nil
	}
	// An absent coin is a zero balance, not a transport failure.
	return &exchange.Balance{Currency: currency}, nil
}

func (ex *Exchange) getEarnBalance(ctx context.Context, currency string) (*exchange.Balance, error) {
	positions, err := ex.client.GetEarnPositions(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("%w: could not get earn positions: %v", exchange.ErrUnavailable, err)
	}
	if len(positions) == 0 {
		return &exchange.Balance{Currency: currency}, nil
	}
	free, err := decimal.NewFromString(positions[0].FreeAmount)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s earn balance %q: %w", currency, positions[0].FreeAmount, err)
	}
	return &exchange.Balance{
		Currency:   currency,
		Available:  free,
		PositionID: positions[0].ProductID,
	}, nil
}

func (ex *Exchange) Redeem(ctx context.Context, positionID string, amount decimal.Decimal, speed exchange.RedeemSpeed) error {
	if len(positionID) == 0 {
		return os.ErrInvalid
	}
	if err := ex.client.RedeemFlexible(ctx, positionID, amount.String(), string(speed)); err != nil {
		return fmt.Errorf("could not redeem position %q: %w", positionID, err)
	}
	return nil
}

func (ex *Exchange) PlaceMarketBuy(ctx context.Context, clientOrderID, symbol string, quoteAmount decimal.Decimal) (*exchange.FillReport, error) {
	order, err := ex.client.PlaceMarketBuy(ctx, clientOrderID, symbol, quoteAmount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: could not place market buy: %v", exchange.ErrUnavailable, err)
	}
	return fillReport(order)
}

// fillReport condenses the per-fill breakdown of a FULL order response into
// a single filled-size/average-price view.
func fillReport(order *internal.OrderResponse) (*exchange.FillReport, error) {
	if len(order.Fills) == 0 {
		return nil, fmt.Errorf("market buy response for %s has no fills", order.Symbol)
	}
	var priceSum, quantity decimal.Decimal
	for _, fill := range order.Fills {
		price, err := decimal.NewFromString(fill.Price)
		if err != nil {
			return nil, fmt.Errorf("could not parse fill price %q: %w", fill.Price, err)
		}
		qty, err := decimal.NewFromString(fill.Quantity)
		if err != nil {
			return nil, fmt.Errorf("could not parse fill quantity %q: %w", fill.Quantity, err)
		}
		priceSum = priceSum.Add(price)
		quantity = quantity.Add(qty)
	}
	quoteSpent, err := decimal.NewFromString(order.CummulativeQuoteQty)
	if err != nil {
		return nil, fmt.Errorf("could not parse cummulative quote quantity %q: %w", order.CummulativeQuoteQty, err)
	}
	return &exchange.FillReport{
		Exchange:      "binance",
		Symbol:        order.Symbol,
		ClientOrderID: order.ClientOrderID,
		FilledSize:    quantity,
		AvgFillPrice:  priceSum.Div(decimal.NewFromInt(int64(len(order.Fills)))),
		QuoteSpent:    quoteSpent,
		Time:          timeFromMillis(order.TransactTime),
	}, nil
}

func (ex *Exchange) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ticker, err := ex.client.GetTickerPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: could not get %s price: %v", exchange.ErrUnavailable, symbol, err)
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not parse %s price %q: %w", symbol, ticker.Price, err)
	}
	return price, nil
}
