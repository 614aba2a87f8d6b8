// Package ledger is the append-only log of executed trades.
package ledger

import (
	"iter"

	"cypherx_sim/internal/models"
)

// Ledger keeps trades in execution order. It is not safe for concurrent use.
type Ledger struct {
	trades []models.Trade
}

func New() *Ledger {
	return &Ledger{}
}

// Append records an executed trade.
func (l *Ledger) Append(t models.Trade) {
	l.trades = append(l.trades, t)
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// Recent returns up to n trades, newest first.
func (l *Ledger) Recent(n int) []models.Trade {
	if n <= 0 {
		return []models.Trade{}
	}
	if n > len(l.trades) {
		n = len(l.trades)
	}
	out := make([]models.Trade, n)
	for i := 0; i < n; i++ {
		out[i] = l.trades[len(l.trades)-1-i]
	}
	return out
}

// All returns a sequence over the trades recorded at call time, oldest
// first. Trades appended later are not visible to it, and it can be ranged
// over any number of times.
func (l *Ledger) All() iter.Seq[models.Trade] {
	// Appends either write past len or reallocate, so the prefix is stable.
	view := l.trades[:len(l.trades):len(l.trades)]
	return func(yield func(models.Trade) bool) {
		for _, t := range view {
			if !yield(t) {
				return
			}
		}
	}
}

// Trades returns a copy of every trade in execution order.
func (l *Ledger) Trades() []models.Trade {
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Reset replaces the log. Used when restoring saved state.
func (l *Ledger) Reset(trades []models.Trade) {
	l.trades = make([]models.Trade, len(trades))
	copy(l.trades, trades)
}
