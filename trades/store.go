// Copyright (c) 2025 BVK Chaitanya

// Package trades persists completed fills in the key-value database.
package trades

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/admrply/dca-crypto/exchange"
	"github.com/admrply/dca-crypto/gobs"
	"github.com/admrply/dca-crypto/kvutil"
	"github.com/bvkgo/kv"
)

const DefaultKeyspace = "/trades/"

// Store records fills under "/trades/<exchange>/<symbol>/<timestamp>" so
// that per-symbol history is one ascending key range.
type Store struct {
	db kv.Database
}

func NewStore(db kv.Database) *Store {
	return &Store{db: db}
}

func fillKey(exchangeName, symbol string, at time.Time) string {
	return path.Join(DefaultKeyspace, exchangeName, symbol, at.UTC().Format(time.RFC3339Nano))
}

func symbolRange(exchangeName, symbol string) (string, string) {
	prefix := path.Join(DefaultKeyspace, exchangeName, symbol)
	return prefix + "/", prefix + "0"
}

func (s *Store) RecordFill(ctx context.Context, fill *exchange.FillReport) error {
	if fill.Time.IsZero() {
		return os.ErrInvalid
	}
	record := &gobs.FillRecord{
		Exchange:      fill.Exchange,
		Symbol:        fill.Symbol,
		ClientOrderID: fill.ClientOrderID,
		FilledSize:    fill.FilledSize,
		AvgFillPrice:  fill.AvgFillPrice,
		QuoteSpent:    fill.QuoteSpent,
		FillTime:      fill.Time,
	}
	key := fillKey(fill.Exchange, fill.Symbol, fill.Time)
	if err := kvutil.SetDB(ctx, s.db, key, record); err != nil {
		return fmt.Errorf("could not save fill at key %q: %w", key, err)
	}
	return nil
}

// LastFillTime returns the time of the most recent recorded fill for the
// symbol. Returns os.ErrNotExist when the symbol has never traded.
func (s *Store) LastFillTime(ctx context.Context, exchangeName, symbol string) (time.Time, error) {
	var last time.Time
	begin, end := symbolRange(exchangeName, symbol)
	read := func(ctx context.Context, r kv.Reader) error {
		return kvutil.Ascend(ctx, r, begin, end, func(ctx context.Context, key string, v *gobs.FillRecord) error {
			if v.FillTime.After(last) {
				last = v.FillTime
			}
			return nil
		})
	}
	if err := kv.WithReader(ctx, s.db, read); err != nil {
		return time.Time{}, err
	}
	if last.IsZero() {
		return time.Time{}, os.ErrNotExist
	}
	return last, nil
}

// AllFills returns every recorded fill across all exchanges and symbols in
// key order.
func (s *Store) AllFills(ctx context.Context) ([]*gobs.FillRecord, error) {
	var fills []*gobs.FillRecord
	end := strings.TrimSuffix(DefaultKeyspace, "/") + "0"
	read := func(ctx context.Context, r kv.Reader) error {
		return kvutil.Ascend(ctx, r, DefaultKeyspace, end, func(ctx context.Context, key string, v *gobs.FillRecord) error {
			fills = append(fills, v)
			return nil
		})
	}
	if err := kv.WithReader(ctx, s.db, read); err != nil {
		return nil, err
	}
	return fills, nil
}

// Fills returns all recorded fills for the symbol in fill-time order.
func (s *Store) Fills(ctx context.Context, exchangeName, symbol string) ([]*gobs.FillRecord, error) {
	var fills []*gobs.FillRecord
	begin, end := symbolRange(exchangeName, symbol)
	read := func(ctx context.Context, r kv.Reader) error {
		return kvutil.Ascend(ctx, r, begin, end, func(ctx context.Context, key string, v *gobs.FillRecord) error {
			fills = append(fills, v)
			return nil
		})
	}
	if err := kv.WithReader(ctx, s.db, read); err != nil {
		return nil, err
	}
	return fills, nil
}
