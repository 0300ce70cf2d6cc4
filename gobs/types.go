// Copyright (c) 2023 BVK Chaitanya

// Package gobs holds the gob-encoded types persisted in the database. Fields
// can be added, but must never be renamed or repurposed.
package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillRecord holds one completed market-buy fill.
type FillRecord struct {
	Exchange string
	Symbol   string

	ClientOrderID string

	FilledSize   decimal.Decimal
	AvgFillPrice decimal.Decimal
	QuoteSpent   decimal.Decimal

	FillTime time.Time
}

// TelegramState holds chat ids learned from authorized users.
type TelegramState struct {
	UserChatIDMap map[string]int64
}

type KeyValue struct {
	Key   string
	Value []byte
}
