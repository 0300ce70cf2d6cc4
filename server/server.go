// Copyright (c) 2023 BVK Chaitanya

// Package server assembles the daemon: it builds the exchange backends,
// notification channels and one purchase scheduler per configured pair, and
// supervises them for the process lifetime.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/admrply/dca-crypto/binance"
	"github.com/admrply/dca-crypto/coinbase"
	"github.com/admrply/dca-crypto/ctxutil"
	"github.com/admrply/dca-crypto/dca"
	"github.com/admrply/dca-crypto/exchange"
	"github.com/admrply/dca-crypto/notify"
	"github.com/admrply/dca-crypto/pushover"
	"github.com/admrply/dca-crypto/telegram"
	"github.com/admrply/dca-crypto/trades"
	"github.com/bvkgo/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/visvasity/cli"
)

type Server struct {
	cg ctxutil.CloseGroup

	db kv.Database

	exchangeMap map[string]exchange.Exchange

	telegramClient *telegram.Client

	notifier notify.Notifier

	history *trades.Store

	schedulers []*dca.Scheduler
}

// New builds the server. Every configured pair is validated and bound to
// its exchange backend here; a single bad pair fails the whole startup.
func New(ctx context.Context, db kv.Database, secrets *Secrets, config *Config) (_ *Server, status error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}
	if err := config.Check(); err != nil {
		return nil, err
	}

	s := &Server{
		db:          db,
		exchangeMap: make(map[string]exchange.Exchange),
		history:     trades.NewStore(db),
	}
	defer func() {
		if status != nil {
			s.Close()
		}
	}()

	if secrets.Binance != nil {
		ex, err := binance.New(secrets.Binance)
		if err != nil {
			return nil, fmt.Errorf("could not create binance client: %w", err)
		}
		s.exchangeMap[ex.ExchangeName()] = ex
	}
	if secrets.Coinbase != nil {
		ex, err := coinbase.New(secrets.Coinbase)
		if err != nil {
			return nil, fmt.Errorf("could not create coinbase client: %w", err)
		}
		s.exchangeMap[ex.ExchangeName()] = ex
	}

	var notifiers notify.Multi
	if secrets.Telegram != nil {
		tc, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = tc
		notifiers = append(notifiers, &telegramNotifier{client: tc})
	}
	if secrets.Pushover != nil {
		pc, err := pushover.New(secrets.Pushover)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		notifiers = append(notifiers, &pushoverNotifier{client: pc})
	}
	if len(notifiers) == 0 {
		s.notifier = notify.Logger{}
	} else {
		s.notifier = notifiers
	}

	for _, pc := range config.Pairs {
		ex, ok := s.exchangeMap[pc.Exchange]
		if !ok {
			return nil, fmt.Errorf("pair %s-%s: no credentials configured for exchange %q",
				pc.Base, pc.Quote, pc.Exchange)
		}
		pair, err := pc.Pair()
		if err != nil {
			return nil, err
		}
		var window *dca.LockWindow
		if pc.Exchange == "binance" {
			window = dca.BinanceLockWindow
		}
		sched, err := dca.NewScheduler(pair, ex, s.history, s.notifier, window)
		if err != nil {
			return nil, err
		}
		s.schedulers = append(s.schedulers, sched)
	}

	if s.telegramClient != nil {
		if err := s.telegramClient.AddCommand(ctx, "status", "Prints per-pair scheduler status", s.statusTelegramCmd); err != nil {
			return nil, fmt.Errorf("could not add telegram status command: %w", err)
		}
	}
	return s, nil
}

// Start launches all schedulers. A scheduler returning for any reason other
// than shutdown is a crash worth waking the operator for.
func (s *Server) Start(ctx context.Context) error {
	s.notifier.Send(ctx, time.Now(), notify.Info,
		fmt.Sprintf("Bot started with %d purchase schedule(s).", len(s.schedulers)))

	for _, sched := range s.schedulers {
		sched := sched
		s.cg.Go(func(ctx context.Context) {
			err := sched.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, os.ErrClosed) {
				slog.Error("scheduler exited unexpectedly", "scheduler", sched, "err", err)
				s.notifier.Send(ctx, time.Now(), notify.Critical,
					fmt.Sprintf("Scheduler %v stopped unexpectedly: %v", sched, err))
			}
		})
	}
	return nil
}

func (s *Server) Close() error {
	s.cg.Close()
	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	for _, ex := range s.exchangeMap {
		ex.Close()
	}
	return nil
}

func (s *Server) Status() []*dca.Status {
	var statuses []*dca.Status
	for _, sched := range s.schedulers {
		statuses = append(statuses, sched.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Pair < statuses[j].Pair
	})
	return statuses
}

// HandlerMap returns the http endpoints exported by the server.
func (s *Server) HandlerMap() map[string]http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newMetricsCollector(s))
	return map[string]http.Handler{
		"/status":  http.HandlerFunc(s.statusHandler),
		"/metrics": promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		slog.Error("could not encode status response", "err", err)
	}
}

func (s *Server) statusTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	for _, status := range s.Status() {
		fmt.Fprintf(stdout, "%s on %s: buffer %s, next tick %s, %d trades, %d failures (%s)\n",
			status.Pair, status.Exchange, status.Buffer.StringFixed(4),
			status.NextTick.Format(time.RFC3339), status.Trades, status.Failures,
			status.Outcome)
	}
	return nil
}
