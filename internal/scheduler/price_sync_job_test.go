package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	symbols []string
	err     error
}

func (s *stubLister) Symbols() ([]string, error) {
	return s.symbols, s.err
}

type stubRefresher struct {
	refreshed []string
	failures  map[string]error
}

func (s *stubRefresher) Refresh(symbol string) error {
	if err, ok := s.failures[symbol]; ok {
		return err
	}
	s.refreshed = append(s.refreshed, symbol)
	return nil
}

func TestPriceSyncJob_RefreshesAllSymbols(t *testing.T) {
	lister := &stubLister{symbols: []string{"AAPL", "MSFT"}}
	refresher := &stubRefresher{}
	job := NewPriceSyncJob(lister, refresher, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"AAPL", "MSFT"}, refresher.refreshed)
}

func TestPriceSyncJob_NoSymbols(t *testing.T) {
	job := NewPriceSyncJob(&stubLister{}, &stubRefresher{}, zerolog.Nop())
	assert.NoError(t, job.Run(context.Background()))
}

func TestPriceSyncJob_PartialFailureIsNotFatal(t *testing.T) {
	lister := &stubLister{symbols: []string{"AAPL", "MSFT"}}
	refresher := &stubRefresher{failures: map[string]error{"AAPL": errors.New("upstream down")}}
	job := NewPriceSyncJob(lister, refresher, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"MSFT"}, refresher.refreshed)
}

func TestPriceSyncJob_AllFailuresError(t *testing.T) {
	lister := &stubLister{symbols: []string{"AAPL"}}
	refresher := &stubRefresher{failures: map[string]error{"AAPL": errors.New("upstream down")}}
	job := NewPriceSyncJob(lister, refresher, zerolog.Nop())

	assert.Error(t, job.Run(context.Background()))
}

func TestPriceSyncJob_ListerError(t *testing.T) {
	lister := &stubLister{err: errors.New("db closed")}
	job := NewPriceSyncJob(lister, &stubRefresher{}, zerolog.Nop())

	assert.Error(t, job.Run(context.Background()))
}

func TestPriceSyncJob_StopsOnCancelledContext(t *testing.T) {
	lister := &stubLister{symbols: []string{"AAPL", "MSFT"}}
	refresher := &stubRefresher{}
	job := NewPriceSyncJob(lister, refresher, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, refresher.refreshed)
}

func TestScheduler_AddJobValidatesSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewPriceSyncJob(&stubLister{}, &stubRefresher{}, zerolog.Nop())

	assert.NoError(t, s.AddJob("30 6 * * *", job))
	assert.Error(t, s.AddJob("not a schedule", job))
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	s := New(zerolog.Nop())
	lister := &stubLister{symbols: []string{"AAPL"}}
	refresher := &stubRefresher{}
	job := NewPriceSyncJob(lister, refresher, zerolog.Nop())

	s.Stop()

	err := s.RunNow(job)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, refresher.refreshed)
}
