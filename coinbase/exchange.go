// Copyright (c) 2025 BVK Chaitanya

// Package coinbase implements the exchange.Exchange interface over the
// Coinbase Advanced Trade API. Coinbase has no flexible-savings product, so
// earn balances always read as zero and redemptions are unsupported.
package coinbase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/admrply/dca-crypto/coinbase/internal"
	"github.com/admrply/dca-crypto/ctxutil"
	"github.com/admrply/dca-crypto/exchange"
	"github.com/shopspring/decimal"
)

type Credentials struct {
	// KID is the CDP API key name.
	KID string `json:"kid"`

	// PEM is the API key's EC private key in PEM form.
	PEM string `json:"pem"`
}

func (v *Credentials) Check() error {
	if len(v.KID) == 0 || len(v.PEM) == 0 {
		return fmt.Errorf("coinbase api key name and private key cannot be empty")
	}
	return nil
}

var minOrderValue = decimal.NewFromInt(1)

var orderPollInterval = time.Second

type Exchange struct {
	client *internal.Client
}

var _ exchange.Exchange = (*Exchange)(nil)

func New(creds *Credentials) (*Exchange, error) {
	if err := creds.Check(); err != nil {
		return nil, err
	}
	client, err := internal.New(creds.KID, creds.PEM, nil /* opts */)
	if err != nil {
		return nil, err
	}
	return &Exchange{client: client}, nil
}

func (ex *Exchange) Close() error {
	return ex.client.Close()
}

func (ex *Exchange) ExchangeName() string {
	return "coinbase"
}

func (ex *Exchange) Symbol(base, quote string) string {
	return base + "-" + quote
}

func (ex *Exchange) MinOrderValue() decimal.Decimal {
	return minOrderValue
}

// FeeCurrency returns "" because Coinbase charges fees in the traded
// currencies, which disables discount-asset fee management.
func (ex *Exchange) FeeCurrency() string {
	return ""
}

func (ex *Exchange) GetBalance(ctx context.Context, kind exchange.AccountKind, currency string) (*exchange.Balance, error) {
	switch kind {
	case exchange.Spot:
		return ex.getSpotBalance(ctx, currency)
	case exchange.Earn:
		// No earn product; report a zero balance so funding falls through
		// to the insufficient-funds path naturally.
		return &exchange.Balance{Currency: currency}, nil
	}
	return nil, os.ErrInvalid
}

func (ex *Exchange) getSpotBalance(ctx context.Context, currency string) (*exchange.Balance, error) {
	accounts, err := ex.client.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not list accounts: %v", exchange.ErrUnavailable, err)
	}
	for _, a := range accounts {
		if a.Currency != currency {
			continue
		}
		avail, err := decimal.NewFromString(a.AvailableBalance.Value)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s available balance %q: %w", currency, a.AvailableBalance.Value, err)
		}
		return &exchange.Balance{Currency: currency, Available: avail}, nil
	}
	return &exchange.Balance{Currency: currency}, nil
}

func (ex *Exchange) Redeem(ctx context.Context, positionID string, amount decimal.Decimal, speed exchange.RedeemSpeed) error {
	return fmt.Errorf("coinbase has no redeemable earn positions: %w", exchange.ErrUnsupported)
}

func (ex *Exchange) PlaceMarketBuy(ctx context.Context, clientOrderID, symbol string, quoteAmount decimal.Decimal) (*exchange.FillReport, error) {
	resp, err := ex.client.CreateMarketBuy(ctx, clientOrderID, symbol, quoteAmount.String())
	if err != nil {
		return nil, fmt.Errorf("%w: could not place market buy: %v", exchange.ErrUnavailable, err)
	}

	// Market IOC orders fill near-instantly, but the order endpoint can lag
	// the create response by a moment.
	var order *internal.Order
	for retry := 0; retry < 5; retry++ {
		order, err = ex.client.GetOrder(ctx, resp.SuccessResponse.OrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: could not fetch order %q: %v", exchange.ErrUnavailable, resp.SuccessResponse.OrderID, err)
		}
		if order.Status == "FILLED" {
			break
		}
		ctxutil.Sleep(ctx, orderPollInterval)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if order.Status != "FILLED" {
		return nil, fmt.Errorf("%w: order %q is still %s after placement", exchange.ErrUnavailable, resp.SuccessResponse.OrderID, order.Status)
	}
	return fillReport(clientOrderID, order)
}

func fillReport(clientOrderID string, order *internal.Order) (*exchange.FillReport, error) {
	size, err := decimal.NewFromString(order.FilledSize)
	if err != nil {
		return nil, fmt.Errorf("could not parse filled size %q: %w", order.FilledSize, err)
	}
	price, err := decimal.NewFromString(order.AverageFilledPrice)
	if err != nil {
		return nil, fmt.Errorf("could not parse average filled price %q: %w", order.AverageFilledPrice, err)
	}
	value, err := decimal.NewFromString(order.FilledValue)
	if err != nil {
		return nil, fmt.Errorf("could not parse filled value %q: %w", order.FilledValue, err)
	}
	at, err := time.Parse(time.RFC3339, order.CreatedTime)
	if err != nil {
		at = time.Now()
	}
	return &exchange.FillReport{
		Exchange:      "coinbase",
		Symbol:        order.ProductID,
		ClientOrderID: clientOrderID,
		FilledSize:    size,
		AvgFillPrice:  price,
		QuoteSpent:    value,
		Time:          at,
	}, nil
}

func (ex *Exchange) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	product, err := ex.client.GetProduct(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: could not get product %s: %v", exchange.ErrUnavailable, symbol, err)
	}
	price, err := decimal.NewFromString(product.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not parse %s price %q: %w", symbol, product.Price, err)
	}
	return price, nil
}
