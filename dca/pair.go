// Copyright (c) 2025 BVK Chaitanya

// Package dca implements the recurring-purchase engine: per asset-pair
// schedulers that accumulate a spend buffer, provision fee and quote
// currency liquidity from earn sub-accounts and execute market buys.
package dca

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Pair describes one recurring purchase schedule. Immutable after creation.
type Pair struct {
	// Base is the currency being purchased.
	Base string

	// Quote is the currency being spent.
	Quote string

	// Amount is the target spend in quote currency units per Period.
	Amount decimal.Decimal

	// Period is the target interval between purchases of Amount.
	Period time.Duration

	// FeeRate is the exchange trading fee as a fraction (0.001 = 0.1%).
	FeeRate decimal.Decimal
}

func (p *Pair) Check() error {
	if len(p.Base) == 0 || len(p.Quote) == 0 {
		return fmt.Errorf("base and quote currencies cannot be empty")
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("pair %s amount must be positive", p.Name())
	}
	if p.Period <= 0 {
		return fmt.Errorf("pair %s period must be positive", p.Name())
	}
	if p.FeeRate.IsNegative() {
		return fmt.Errorf("pair %s fee rate cannot be negative", p.Name())
	}
	return nil
}

func (p *Pair) Name() string {
	return p.Base + "-" + p.Quote
}

var intervalRe = regexp.MustCompile(`^(?:(\d+)w)?(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseInterval parses interval strings of the "1w2d3h4m5s" form, where
// every part is optional but at least one must be present. Unlike
// time.ParseDuration it accepts day and week units, which the long-period
// schedules are configured with.
func ParseInterval(s string) (time.Duration, error) {
	m := intervalRe.FindStringSubmatch(s)
	if m == nil || len(s) == 0 {
		return 0, fmt.Errorf("invalid interval string %q", s)
	}
	units := []time.Duration{
		7 * 24 * time.Hour,
		24 * time.Hour,
		time.Hour,
		time.Minute,
		time.Second,
	}
	var d time.Duration
	var nparts int
	for i, unit := range units {
		if len(m[i+1]) == 0 {
			continue
		}
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid interval string %q: %w", s, err)
		}
		d += time.Duration(v) * unit
		nparts++
	}
	if nparts == 0 {
		return 0, fmt.Errorf("invalid interval string %q", s)
	}
	return d, nil
}
