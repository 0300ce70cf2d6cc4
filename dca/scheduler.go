// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/admrply/dca-crypto/ctxutil"
	"github.com/admrply/dca-crypto/exchange"
	"github.com/admrply/dca-crypto/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome is the result of the last attempted trade. NoTradeYet is distinct
// from Failure so the very first tick does not start with failure backoff.
type Outcome string

const (
	NoTradeYet Outcome = "NO_TRADE_YET"
	Success    Outcome = "SUCCESS"
	Failure    Outcome = "FAILURE"
)

// failureBackoff is the fixed suspension after a failed trade, regardless
// of the configured period. Most failures (e.g., the exchange's daily FAST
// redemption limit) clear within the hour.
const failureBackoff = time.Hour

var secondsPerHour = decimal.NewFromInt(3600)

// TradeHistory records completed fills and answers when the last one
// happened. The scheduler uses it to survive restarts without
// double-spending.
type TradeHistory interface {
	RecordFill(ctx context.Context, fill *exchange.FillReport) error
	LastFillTime(ctx context.Context, exchangeName, symbol string) (time.Time, error)
}

// Scheduler is the per-pair control loop. Each instance exclusively owns
// its pair's spend buffer; schedulers never observe each other's state.
type Scheduler struct {
	pair   Pair
	symbol string

	ex       exchange.Exchange
	history  TradeHistory
	notifier notify.Notifier
	window   *LockWindow

	fees   *FeeManager
	funder *Funder
	buffer *Buffer

	// Oversized schedules are split into sub-target ticks no smaller than
	// the exchange's minimum order value: tickAmount every tickInterval
	// spends pair.Amount every pair.Period.
	tickAmount   decimal.Decimal
	tickInterval time.Duration

	mu       sync.Mutex
	outcome  Outcome
	nextTick time.Time
	trades   int64
	failures int64
}

// Status is a point-in-time snapshot of one scheduler, safe to read while
// the loop is running.
type Status struct {
	Pair     string
	Exchange string
	Symbol   string

	Buffer       decimal.Decimal
	TickAmount   decimal.Decimal
	TickInterval time.Duration

	Outcome  Outcome
	NextTick time.Time

	Trades   int64
	Failures int64
}

func NewScheduler(pair Pair, ex exchange.Exchange, history TradeHistory, notifier notify.Notifier, window *LockWindow) (*Scheduler, error) {
	if err := pair.Check(); err != nil {
		return nil, err
	}
	minOrder := ex.MinOrderValue()
	if !minOrder.IsPositive() {
		return nil, fmt.Errorf("exchange %s minimum order value must be positive", ex.ExchangeName())
	}

	denom := decimal.NewFromInt(1)
	if pair.Amount.GreaterThan(minOrder) {
		denom = pair.Amount.Div(minOrder)
	}
	interval := time.Duration(float64(pair.Period) / denom.InexactFloat64())

	s := &Scheduler{
		pair:         pair,
		symbol:       ex.Symbol(pair.Base, pair.Quote),
		ex:           ex,
		history:      history,
		notifier:     notifier,
		window:       window,
		fees:         NewFeeManager(ex, notifier, pair.FeeRate, pair.Quote),
		funder:       NewFunder(ex, notifier),
		buffer:       NewBuffer(decimal.Zero),
		tickAmount:   pair.Amount.Div(denom),
		tickInterval: interval,
		outcome:      NoTradeYet,
	}
	return s, nil
}

func (s *Scheduler) String() string {
	return "scheduler:" + s.ex.ExchangeName() + "/" + s.symbol
}

// Run is the scheduler main loop. It returns only when ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("%v: adding %s %s to the %s pool at an interval of %s",
		s, s.tickAmount, s.pair.Quote, s.pair.Base, s.tickInterval)

	s.resume(ctx)

	for ctx.Err() == nil {
		d := s.tick(ctx)
		s.setNextTick(time.Now().Add(d))
		ctxutil.Sleep(ctx, d)
	}
	return context.Cause(ctx)
}

// resume consults the trade history so a process restart does not buy again
// immediately after a recent fill. The next scheduled tick is derived from
// the last recorded fill time.
func (s *Scheduler) resume(ctx context.Context) {
	last, err := s.history.LastFillTime(ctx, s.ex.ExchangeName(), s.symbol)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("could not read trade history; starting fresh", "scheduler", s, "err", err)
		}
		return
	}

	s.setOutcome(Success)
	if next := last.Add(s.tickInterval); next.After(time.Now()) {
		log.Printf("%v: a trade already occurred recently; pausing until the next tick at %v", s, next)
		s.setNextTick(next)
		ctxutil.SleepUntil(ctx, next)
	}
}

// tick runs one evaluation cycle and returns how long to sleep before the
// next one.
func (s *Scheduler) tick(ctx context.Context) time.Duration {
	// A failed tick already added its compensation amount; adding the
	// normal increment as well would double-spend the hour.
	if s.Outcome() != Failure {
		s.buffer.Add(s.tickAmount)
	}

	outcome := NoTradeYet
	if s.buffer.Value().GreaterThanOrEqual(s.ex.MinOrderValue()) {
		s.waitForUnlock(ctx)
		if ctx.Err() != nil {
			return 0
		}
		outcome = s.trade(ctx)
	}

	switch outcome {
	case Success:
		s.buffer.Reset()
		s.recordSuccess()

	case Failure:
		// Compensate the skipped hour so the eventual retry also makes up
		// for it, then back off.
		comp := s.pair.Amount.Div(decimal.NewFromFloat(s.pair.Period.Seconds())).Mul(secondsPerHour)
		s.buffer.Add(comp)
		s.notifier.Send(ctx, time.Now(), notify.Warning,
			fmt.Sprintf("Setting the next %s tick to 1 hour for trade backoff. Adding %s %s to compensate for the delay.",
				s.symbol, comp.Round(BufferPrecision), s.pair.Quote))
		s.recordFailure()
		return failureBackoff
	}

	// The stored outcome keeps reporting the last attempted trade's result;
	// ticks that only accumulate do not change it.
	return s.tickInterval
}

// waitForUnlock suspends through the exchange's daily redemption lock
// window. The trade is delayed, never failed, by the lock.
func (s *Scheduler) waitForUnlock(ctx context.Context) {
	if s.window == nil {
		return
	}
	if locked, wait := s.window.IsLocked(time.Now()); locked {
		log.Printf("%v: earn withdrawals are locked; waiting %s until unlock", s, wait)
		ctxutil.Sleep(ctx, wait)
	}
}

// trade attempts to buy the full buffered amount.
func (s *Scheduler) trade(ctx context.Context) Outcome {
	amount := s.buffer.Value()

	// Fee provisioning is best-effort and never blocks the trade.
	if feeEst, err := s.fees.EstimateFee(ctx, amount); err != nil {
		slog.Error("could not estimate trade fee; will attempt trade anyway", "scheduler", s, "err", err)
	} else {
		s.fees.EnsureFeeLiquidity(ctx, feeEst)
	}

	if err := s.funder.EnsureQuoteLiquidity(ctx, s.pair.Quote, amount); err != nil {
		s.notifier.Send(ctx, time.Now(), notify.Critical,
			fmt.Sprintf("%s trade failed: %v", s.symbol, err))
		return Failure
	}

	fill, err := s.ex.PlaceMarketBuy(ctx, uuid.New().String(), s.symbol, amount)
	if err != nil {
		s.notifier.Send(ctx, time.Now(), notify.Critical,
			fmt.Sprintf("Failed to execute %s trade: %v", s.symbol, err))
		return Failure
	}

	if err := s.history.RecordFill(ctx, fill); err != nil {
		slog.Error("could not record fill (trade succeeded)", "scheduler", s, "err", err)
	}
	s.notifier.Send(ctx, time.Now(), notify.Info,
		fmt.Sprintf("💸 Purchased %s %s @ %s (%s %s)",
			fill.FilledSize, s.pair.Base, fill.AvgFillPrice, fill.QuoteSpent, s.pair.Quote))
	return Success
}

func (s *Scheduler) Status() *Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Status{
		Pair:         s.pair.Name(),
		Exchange:     s.ex.ExchangeName(),
		Symbol:       s.symbol,
		Buffer:       s.buffer.Value(),
		TickAmount:   s.tickAmount,
		TickInterval: s.tickInterval,
		Outcome:      s.outcome,
		NextTick:     s.nextTick,
		Trades:       s.trades,
		Failures:     s.failures,
	}
}

func (s *Scheduler) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Scheduler) setOutcome(v Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = v
}

func (s *Scheduler) setNextTick(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTick = at
}

func (s *Scheduler) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = Success
	s.trades++
}

func (s *Scheduler) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = Failure
	s.failures++
}
