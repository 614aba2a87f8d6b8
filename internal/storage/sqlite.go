package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	symbol     TEXT PRIMARY KEY,
	amount     TEXT NOT NULL,
	cost_basis TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	seq        INTEGER PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	symbol     TEXT NOT NULL,
	action     TEXT NOT NULL,
	amount     TEXT NOT NULL,
	price      TEXT NOT NULL,
	ts         TEXT NOT NULL,
	signal_tag TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS prices (
	symbol TEXT PRIMARY KEY,
	price  TEXT NOT NULL
);`

// SQLiteStore keeps the state in a SQLite database. Decimals are stored as
// TEXT so they round-trip exactly.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and creates
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored state in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, st models.PortfolioState) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"meta", "positions", "trades", "prices"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	meta := map[string]string{
		"version":         st.Version,
		"last_save":       time.Now().UTC().Format(time.RFC3339),
		"cash_balance":    st.CashBalance.String(),
		"initial_balance": st.InitialBalance.String(),
	}
	for k, v := range meta {
		if _, err = tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	for _, p := range st.Positions {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO positions (symbol, amount, cost_basis) VALUES (?, ?, ?)",
			p.Symbol, p.Amount.String(), p.CostBasis.String()); err != nil {
			return fmt.Errorf("insert position %s: %w", p.Symbol, err)
		}
	}

	for i, t := range st.TradeHistory {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO trades (seq, id, symbol, action, amount, price, ts, signal_tag) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			i, t.ID, t.Symbol, string(t.Action), t.Amount.String(), t.Price.String(),
			t.Timestamp.Format(time.RFC3339Nano), t.SignalTag); err != nil {
			return fmt.Errorf("insert trade %s: %w", t.ID, err)
		}
	}

	for symbol, price := range st.AssetPrices {
		if _, err = tx.ExecContext(ctx, "INSERT INTO prices (symbol, price) VALUES (?, ?)", symbol, price.String()); err != nil {
			return fmt.Errorf("insert price %s: %w", symbol, err)
		}
	}

	return tx.Commit()
}

// Load reads the stored state. An empty database reports found=false.
func (s *SQLiteStore) Load(ctx context.Context) (models.PortfolioState, bool, error) {
	var st models.PortfolioState

	var version string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'version'").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("read version: %w", err)
	}
	st.Version = version

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return st, false, fmt.Errorf("read meta: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return st, false, err
		}
		switch k {
		case "last_save":
			st.LastSave = v
		case "cash_balance":
			st.CashBalance, err = decimal.NewFromString(v)
		case "initial_balance":
			st.InitialBalance, err = decimal.NewFromString(v)
		}
		if err != nil {
			rows.Close()
			return st, false, fmt.Errorf("parse meta %s: %w", k, err)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return st, false, fmt.Errorf("read meta: %w", err)
	}
	rows.Close()

	if st.Positions, err = s.loadPositions(ctx); err != nil {
		return st, false, err
	}
	if st.TradeHistory, err = s.loadTrades(ctx); err != nil {
		return st, false, err
	}
	if st.AssetPrices, err = s.loadPrices(ctx); err != nil {
		return st, false, err
	}
	return st, true, nil
}

func (s *SQLiteStore) loadPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT symbol, amount, cost_basis FROM positions ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		var symbol, amount, cost string
		if err := rows.Scan(&symbol, &amount, &cost); err != nil {
			return nil, err
		}
		p := models.Position{Symbol: symbol}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse position %s amount: %w", symbol, err)
		}
		if p.CostBasis, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("parse position %s cost basis: %w", symbol, err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *SQLiteStore) loadTrades(ctx context.Context) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, symbol, action, amount, price, ts, signal_tag FROM trades ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("read trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var t models.Trade
		var action, amount, price, ts string
		if err := rows.Scan(&t.ID, &t.Symbol, &action, &amount, &price, &ts, &t.SignalTag); err != nil {
			return nil, err
		}
		t.Action = models.Action(action)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse trade %s amount: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse trade %s price: %w", t.ID, err)
		}
		if t.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse trade %s time: %w", t.ID, err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *SQLiteStore) loadPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT symbol, price FROM prices")
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal)
	for rows.Next() {
		var symbol, price string
		if err := rows.Scan(&symbol, &price); err != nil {
			return nil, err
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse price %s: %w", symbol, err)
		}
		prices[symbol] = p
	}
	return prices, rows.Err()
}
