// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/admrply/dca-crypto/dca"
	"github.com/shopspring/decimal"
)

// defaultFeeRate is used for pairs that do not configure one. It matches
// the common spot taker fee tier of 0.1%.
var defaultFeeRate = decimal.NewFromFloat(0.001)

type PairConfig struct {
	// Exchange names the backend for this pair: "binance" or "coinbase".
	Exchange string `json:"exchange"`

	Base  string `json:"base"`
	Quote string `json:"quote"`

	// Amount is the quote-currency spend per Interval.
	Amount decimal.Decimal `json:"amount"`

	// Interval takes the "1w2d3h4m5s" form; every unit is optional.
	Interval string `json:"interval"`

	// FeeRate overrides the default 0.001 trading fee fraction.
	FeeRate *decimal.Decimal `json:"fee_rate"`
}

// Pair resolves the configured values into a checked schedule.
func (v *PairConfig) Pair() (dca.Pair, error) {
	period, err := dca.ParseInterval(v.Interval)
	if err != nil {
		return dca.Pair{}, fmt.Errorf("pair %s-%s: %w", v.Base, v.Quote, err)
	}
	feeRate := defaultFeeRate
	if v.FeeRate != nil {
		feeRate = *v.FeeRate
	}
	p := dca.Pair{
		Base:    v.Base,
		Quote:   v.Quote,
		Amount:  v.Amount,
		Period:  period,
		FeeRate: feeRate,
	}
	if err := p.Check(); err != nil {
		return dca.Pair{}, err
	}
	return p, nil
}

type Config struct {
	Pairs []*PairConfig `json:"pairs"`
}

func ConfigFromFile(fpath string) (*Config, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	c := new(Config)
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// Check validates every configured pair. Validation failures are fatal at
// startup; a daemon that silently skipped a misconfigured pair would stop
// accumulating that schedule without anyone noticing.
func (c *Config) Check() error {
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair must be configured")
	}
	seen := make(map[string]bool)
	for _, pc := range c.Pairs {
		switch pc.Exchange {
		case "binance", "coinbase":
		default:
			return fmt.Errorf("pair %s-%s: unknown exchange %q", pc.Base, pc.Quote, pc.Exchange)
		}
		p, err := pc.Pair()
		if err != nil {
			return err
		}
		key := pc.Exchange + "/" + p.Name()
		if seen[key] {
			return fmt.Errorf("pair %s is configured twice on %s", p.Name(), pc.Exchange)
		}
		seen[key] = true
	}
	return nil
}
