// Package history stores daily price observations and assembles the
// aligned price tables the calculation engine consumes.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/riskcalc/internal/database"
	"github.com/aristath/riskcalc/internal/domain"
	"github.com/rs/zerolog"
)

// Store provides access to cached daily price data
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new price history store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "history_store").Logger(),
	}
}

// Migrate creates the daily_prices table if it does not exist
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date INTEGER NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol ON daily_prices(symbol);
		CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate daily_prices: %w", err)
	}
	return nil
}

// GetDailyPrices fetches up to limit most recent daily prices for a symbol,
// ordered by date ascending
func (s *Store) GetDailyPrices(symbol string, limit int) ([]domain.DailyPrice, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.DailyPrice
	for rows.Next() {
		var p domain.DailyPrice
		var dateUnix int64
		var volume sql.NullInt64

		if err := rows.Scan(&dateUnix, &p.Open, &p.High, &p.Low, &p.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		p.Date = time.Unix(dateUnix, 0).UTC()
		if volume.Valid {
			p.Volume = &volume.Int64
		}

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// Query is newest-first for the LIMIT; callers want chronological order
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}

	return prices, nil
}

// CloseSeries returns the close-price series for a symbol, oldest first
func (s *Store) CloseSeries(symbol string, limit int) (domain.PriceSeries, error) {
	prices, err := s.GetDailyPrices(symbol, limit)
	if err != nil {
		return domain.PriceSeries{}, err
	}

	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Date: p.Date, Close: p.Close}
	}

	return domain.PriceSeries{Symbol: symbol, Points: points}, nil
}

// Sync upserts a batch of daily prices for a symbol. Dates are normalized
// to UTC midnight so observations from different fetches line up.
func (s *Store) Sync(symbol string, prices []domain.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO daily_prices (symbol, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			var volume interface{}
			if p.Volume != nil {
				volume = *p.Volume
			}
			if _, err := stmt.Exec(symbol, normalizeDate(p.Date), p.Open, p.High, p.Low, p.Close, volume); err != nil {
				return fmt.Errorf("failed to upsert price: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("count", len(prices)).
		Msg("Synced daily prices")

	return nil
}

// Symbols returns the distinct symbols with stored history
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// Count returns the number of stored observations for a symbol
func (s *Store) Count(symbol string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_prices WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count prices: %w", err)
	}
	return count, nil
}

// normalizeDate truncates a timestamp to its UTC calendar day
func normalizeDate(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
