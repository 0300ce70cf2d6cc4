// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/admrply/dca-crypto/exchange"
	"github.com/shopspring/decimal"
)

func testPair(amount string, period time.Duration) Pair {
	return Pair{
		Base:    "BTC",
		Quote:   "GBP",
		Amount:  decimal.RequireFromString(amount),
		Period:  period,
		FeeRate: decimal.RequireFromString("0.001"),
	}
}

func TestSchedulerSplitsOversizedSchedule(t *testing.T) {
	ex := newFakeExchange() // min order value 10

	// 65 per day splits into 6.5 sub-targets of 10 each.
	s, err := NewScheduler(testPair("65", 24*time.Hour), ex, &fakeHistory{}, &fakeNotifier{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	status := s.Status()
	if want := decimal.NewFromInt(10); !status.TickAmount.Equal(want) {
		t.Fatalf("tick amount = %s, want %s", status.TickAmount, want)
	}
	denom := 6.5
	if want := time.Duration(float64(24*time.Hour) / denom); status.TickInterval != want {
		t.Fatalf("tick interval = %s, want %s", status.TickInterval, want)
	}
	if status.Outcome != NoTradeYet {
		t.Fatalf("outcome = %s, want %s", status.Outcome, NoTradeYet)
	}
}

func TestSchedulerSmallScheduleUnsplit(t *testing.T) {
	ex := newFakeExchange()

	// Below the minimum order value the full amount and period are kept.
	s, err := NewScheduler(testPair("5", time.Hour), ex, &fakeHistory{}, &fakeNotifier{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	status := s.Status()
	if want := decimal.NewFromInt(5); !status.TickAmount.Equal(want) {
		t.Fatalf("tick amount = %s, want %s", status.TickAmount, want)
	}
	if status.TickInterval != time.Hour {
		t.Fatalf("tick interval = %s, want %s", status.TickInterval, time.Hour)
	}
}

func TestTickAccumulatesUntilMinOrder(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.feeCcy = ""
	ex.spot["GBP"] = decimal.NewFromInt(100)

	n := &fakeNotifier{}
	history := &fakeHistory{}
	s, err := NewScheduler(testPair("5", time.Hour), ex, history, n, nil)
	if err != nil {
		t.Fatal(err)
	}

	// First tick accumulates 5, which is below the minimum order of 10.
	if d := s.tick(ctx); d != time.Hour {
		t.Fatalf("sleep = %s, want %s", d, time.Hour)
	}
	if len(ex.buys) != 0 {
		t.Fatalf("unexpected buys %v", ex.buys)
	}
	if want := decimal.NewFromInt(5); !s.buffer.Value().Equal(want) {
		t.Fatalf("buffer = %s, want %s", s.buffer.Value(), want)
	}
	if s.Outcome() != NoTradeYet {
		t.Fatalf("outcome = %s before the first trade, want %s", s.Outcome(), NoTradeYet)
	}

	// Second tick reaches 10 and trades the full buffer.
	if d := s.tick(ctx); d != time.Hour {
		t.Fatalf("sleep = %s, want %s", d, time.Hour)
	}
	if len(ex.buys) != 1 {
		t.Fatalf("expected one buy, got %v", ex.buys)
	}
	if want := decimal.NewFromInt(10); !ex.buys[0].quoteAmount.Equal(want) {
		t.Fatalf("buy amount = %s, want %s", ex.buys[0].quoteAmount, want)
	}
	if !s.buffer.Value().IsZero() {
		t.Fatalf("buffer = %s after success, want 0", s.buffer.Value())
	}
	if len(history.fills) != 1 {
		t.Fatalf("expected one recorded fill, got %d", len(history.fills))
	}

	status := s.Status()
	if status.Trades != 1 || status.Failures != 0 {
		t.Fatalf("trades/failures = %d/%d, want 1/0", status.Trades, status.Failures)
	}
	if status.Outcome != Success {
		t.Fatalf("outcome = %s after a successful trade, want %s", status.Outcome, Success)
	}

	var purchased bool
	for _, msg := range n.messages() {
		if strings.Contains(msg, "Purchased") {
			purchased = true
		}
	}
	if !purchased {
		t.Fatalf("no purchase notification in %v", n.messages())
	}
}

func TestTickFailureBackoff(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.feeCcy = ""
	ex.spot["GBP"] = decimal.NewFromInt(100)
	ex.buyErr = errors.New("exchange rejected order")

	n := &fakeNotifier{}
	s, err := NewScheduler(testPair("24", 24*time.Hour), ex, &fakeHistory{}, n, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 24 over 24h splits into 2.4 ticks of 10; the hourly compensation for a
	// failed tick is 24/86400*3600 = 1.

	if d := s.tick(ctx); d != failureBackoff {
		t.Fatalf("sleep = %s, want %s", d, failureBackoff)
	}
	if want := decimal.NewFromInt(11); !s.buffer.Value().Equal(want) {
		t.Fatalf("buffer = %s after failure, want %s", s.buffer.Value(), want)
	}
	if s.Outcome() != Failure {
		t.Fatalf("outcome = %s, want %s", s.Outcome(), Failure)
	}

	// The tick after a failure must not add the normal increment again; only
	// the compensation amount accrues.
	if d := s.tick(ctx); d != failureBackoff {
		t.Fatalf("sleep = %s, want %s", d, failureBackoff)
	}
	if want := decimal.NewFromInt(12); !s.buffer.Value().Equal(want) {
		t.Fatalf("buffer = %s after second failure, want %s", s.buffer.Value(), want)
	}
	if s.Status().Failures != 2 {
		t.Fatalf("failures = %d, want 2", s.Status().Failures)
	}

	// Recovery spends the whole accumulated buffer, including compensation.
	ex.buyErr = nil
	if d := s.tick(ctx); d != s.tickInterval {
		t.Fatalf("sleep = %s, want %s", d, s.tickInterval)
	}
	if len(ex.buys) != 1 {
		t.Fatalf("expected one buy, got %v", ex.buys)
	}
	if want := decimal.NewFromInt(12); !ex.buys[0].quoteAmount.Equal(want) {
		t.Fatalf("buy amount = %s, want %s", ex.buys[0].quoteAmount, want)
	}
	if !s.buffer.Value().IsZero() {
		t.Fatalf("buffer = %s after recovery, want 0", s.buffer.Value())
	}
	if s.Outcome() != Success {
		t.Fatalf("outcome = %s after recovery, want %s", s.Outcome(), Success)
	}
}

func TestFailureCompensationRounding(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange()
	ex.feeCcy = ""
	ex.spot["GBP"] = decimal.NewFromInt(100)
	ex.buyErr = errors.New("exchange rejected order")

	// 65 over 30 days compensates 65/2592000*3600 = 0.090277... per failed
	// tick; the buffer rounds to 4 places after every add.
	s, err := NewScheduler(testPair("65", 30*24*time.Hour), ex, &fakeHistory{}, &fakeNotifier{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if d := s.tick(ctx); d != failureBackoff {
		t.Fatalf("sleep = %s, want %s", d, failureBackoff)
	}
	if want := decimal.RequireFromString("10.0903"); !s.buffer.Value().Equal(want) {
		t.Fatalf("buffer = %s after failure, want %s", s.buffer.Value(), want)
	}

	if d := s.tick(ctx); d != failureBackoff {
		t.Fatalf("sleep = %s, want %s", d, failureBackoff)
	}
	if want := decimal.RequireFromString("10.1806"); !s.buffer.Value().Equal(want) {
		t.Fatalf("buffer = %s after second failure, want %s", s.buffer.Value(), want)
	}
}

func TestResumeFromHistory(t *testing.T) {
	ex := newFakeExchange()
	ex.feeCcy = ""

	history := &fakeHistory{}
	s, err := NewScheduler(testPair("5", time.Hour), ex, history, &fakeNotifier{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	last := time.Now().Add(-10 * time.Minute)
	history.fills = append(history.fills, &exchange.FillReport{
		Exchange: ex.ExchangeName(),
		Symbol:   s.symbol,
		Time:     last,
	})

	// Canceled context makes the pause return immediately.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.resume(ctx)

	status := s.Status()
	if status.Outcome != Success {
		t.Fatalf("outcome = %s, want %s", status.Outcome, Success)
	}
	if want := last.Add(s.tickInterval); !status.NextTick.Equal(want) {
		t.Fatalf("next tick = %v, want %v", status.NextTick, want)
	}
}

func TestResumeWithoutHistory(t *testing.T) {
	ex := newFakeExchange()
	s, err := NewScheduler(testPair("5", time.Hour), ex, &fakeHistory{}, &fakeNotifier{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	s.resume(context.Background())

	status := s.Status()
	if status.Outcome != NoTradeYet {
		t.Fatalf("outcome = %s, want %s", status.Outcome, NoTradeYet)
	}
	if !status.NextTick.IsZero() {
		t.Fatalf("next tick = %v, want zero", status.NextTick)
	}
}
