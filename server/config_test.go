// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestConfigFromFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"pairs": [
			{"exchange": "binance", "base": "BTC", "quote": "GBP", "amount": "65", "interval": "1d"},
			{"exchange": "coinbase", "base": "ETH", "quote": "GBP", "amount": "20", "interval": "12h", "fee_rate": "0.006"}
		]
	}`
	if err := os.WriteFile(fpath, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := ConfigFromFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(c.Pairs))
	}

	p0, err := c.Pairs[0].Pair()
	if err != nil {
		t.Fatal(err)
	}
	if p0.Period != 24*time.Hour {
		t.Fatalf("period = %s, want 24h", p0.Period)
	}
	if !p0.FeeRate.Equal(defaultFeeRate) {
		t.Fatalf("fee rate = %s, want default %s", p0.FeeRate, defaultFeeRate)
	}

	p1, err := c.Pairs[1].Pair()
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.RequireFromString("0.006"); !p1.FeeRate.Equal(want) {
		t.Fatalf("fee rate = %s, want %s", p1.FeeRate, want)
	}
}

func TestConfigCheck(t *testing.T) {
	pair := func(exchange, base, quote, amount, interval string) *PairConfig {
		return &PairConfig{
			Exchange: exchange,
			Base:     base,
			Quote:    quote,
			Amount:   decimal.RequireFromString(amount),
			Interval: interval,
		}
	}

	bad := []*Config{
		{},
		{Pairs: []*PairConfig{pair("kraken", "BTC", "GBP", "65", "1d")}},
		{Pairs: []*PairConfig{pair("binance", "BTC", "GBP", "65", "every-day")}},
		{Pairs: []*PairConfig{pair("binance", "BTC", "GBP", "0", "1d")}},
		{Pairs: []*PairConfig{
			pair("binance", "BTC", "GBP", "65", "1d"),
			pair("binance", "BTC", "GBP", "10", "1h"),
		}},
	}
	for i, c := range bad {
		if err := c.Check(); err == nil {
			t.Errorf("config %d: Check() = nil, want an error", i)
		}
	}

	// The same pair on different exchanges is fine.
	good := &Config{Pairs: []*PairConfig{
		pair("binance", "BTC", "GBP", "65", "1d"),
		pair("coinbase", "BTC", "GBP", "65", "1d"),
	}}
	if err := good.Check(); err != nil {
		t.Fatal(err)
	}
}
