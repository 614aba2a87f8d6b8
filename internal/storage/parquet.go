package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cypherx_sim/internal/models"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// TradeRecord is the Parquet schema for an exported trade. Decimals are kept
// as strings so nothing is lost to float rounding.
type TradeRecord struct {
	ID        string `parquet:"id"`
	Symbol    string `parquet:"symbol"`
	Action    string `parquet:"action"`
	Amount    string `parquet:"amount"`
	Price     string `parquet:"price"`
	Notional  string `parquet:"notional"`
	Timestamp int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	SignalTag string `parquet:"signal_tag"`
}

// ExportTradesParquet writes trades to a Parquet file at path, creating
// parent directories as needed.
func ExportTradesParquet(path string, trades []models.Trade) error {
	records := make([]TradeRecord, len(trades))
	for i, t := range trades {
		records[i] = TradeRecord{
			ID:        t.ID,
			Symbol:    t.Symbol,
			Action:    string(t.Action),
			Amount:    t.Amount.String(),
			Price:     t.Price.String(),
			Notional:  t.Notional().String(),
			Timestamp: t.Timestamp.UnixMilli(),
			SignalTag: t.SignalTag,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing trades to %s: %w", path, err)
	}
	return nil
}

// ReadTradesParquet reads a file written by ExportTradesParquet.
// Timestamps come back at millisecond precision in UTC.
func ReadTradesParquet(path string) ([]models.Trade, error) {
	records, err := parquet.ReadFile[TradeRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading trades from %s: %w", path, err)
	}
	trades := make([]models.Trade, len(records))
	for i, r := range records {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("trade %s amount: %w", r.ID, err)
		}
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("trade %s price: %w", r.ID, err)
		}
		trades[i] = models.Trade{
			ID:        r.ID,
			Symbol:    r.Symbol,
			Action:    models.Action(r.Action),
			Amount:    amount,
			Price:     price,
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			SignalTag: r.SignalTag,
		}
	}
	return trades, nil
}
