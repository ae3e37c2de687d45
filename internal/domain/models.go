// Package domain holds the value objects shared by the calculation engine
// and its adapters. All types here are created per request and never mutated
// after construction.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSeries indicates a price series violating its construction
// invariants (unordered dates or non-positive prices).
var ErrInvalidSeries = errors.New("invalid price series")

// DailyPrice represents a daily OHLCV price point
type DailyPrice struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *int64    `json:"volume,omitempty"`
}

// PricePoint is a single (date, close) observation
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is the ordered close-price history of one instrument.
// Dates are strictly increasing and prices positive; Validate checks both.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Validate checks the series invariants: strictly increasing dates and
// positive prices.
func (s PriceSeries) Validate() error {
	for i, p := range s.Points {
		if p.Close <= 0 {
			return fmt.Errorf("%w: %s has non-positive price %.4f at %s",
				ErrInvalidSeries, s.Symbol, p.Close, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !s.Points[i-1].Date.Before(p.Date) {
			return fmt.Errorf("%w: %s dates not strictly increasing at %s",
				ErrInvalidSeries, s.Symbol, p.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the ordered close prices of the series
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Len returns the number of observations in the series
func (s PriceSeries) Len() int {
	return len(s.Points)
}
