// Copyright (c) 2025 BVK Chaitanya

package dca

import (
	"sync"

	"github.com/shopspring/decimal"
)

// BufferPrecision is the number of decimal places the spend buffer is
// rounded to after every addition, so that thousands of small additions
// cannot accumulate drift. Four places is enough for fiat quote currencies;
// bump to six before using BTC or ETH as the quote.
const BufferPrecision = 4

// Buffer accumulates the pending quote-currency value for one asset pair.
// It is owned by a single scheduler; the mutex only protects concurrent
// reads from the status handlers.
type Buffer struct {
	mu sync.Mutex

	value decimal.Decimal
}

// NewBuffer returns a buffer holding the given carry-over value.
func NewBuffer(carry decimal.Decimal) *Buffer {
	return &Buffer{value: carry.Round(BufferPrecision)}
}

// Add accumulates amount into the buffer and returns the new value.
func (b *Buffer) Add(amount decimal.Decimal) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.value = b.value.Add(amount).Round(BufferPrecision)
	return b.value
}

// Reset zeroes the buffer. Called only after a confirmed successful trade.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.value = decimal.Zero
}

func (b *Buffer) Value() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.value
}
