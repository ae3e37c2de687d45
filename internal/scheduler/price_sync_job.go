package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SymbolLister enumerates the symbols with stored price history
type SymbolLister interface {
	Symbols() ([]string, error)
}

// Refresher fetches fresh history for one symbol and stores it
type Refresher interface {
	Refresh(symbol string) error
}

// PriceSyncJob refreshes stored price history for every known symbol so
// calculations keep working from recent data
type PriceSyncJob struct {
	store  SymbolLister
	source Refresher
	log    zerolog.Logger
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(store SymbolLister, source Refresher, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		store:  store,
		source: source,
		log:    log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run refreshes every known symbol. A failed symbol does not stop the
// rest; the job fails only if every symbol fails or the context is
// cancelled mid-run.
func (j *PriceSyncJob) Run(ctx context.Context) error {
	symbols, err := j.store.Symbols()
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}

	if len(symbols) == 0 {
		j.log.Debug().Msg("No symbols to sync")
		return nil
	}

	failed := 0
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			j.log.Warn().Str("symbol", symbol).Msg("Sync cancelled")
			return fmt.Errorf("sync cancelled: %w", err)
		}
		if err := j.source.Refresh(symbol); err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh symbol")
			failed++
		}
	}

	j.log.Info().
		Int("total", len(symbols)).
		Int("failed", failed).
		Msg("Price sync completed")

	if failed == len(symbols) {
		return fmt.Errorf("all %d symbols failed to refresh", failed)
	}

	return nil
}
