package ingestion

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
	"github.com/guttosm/stockpulse/internal/storage"
)

// Fetcher retrieves the recent daily series for one symbol.
type Fetcher interface {
	FetchDailySeries(ctx context.Context, symbol string) ([]alphavantage.DailyObservation, error)
}

// Engine runs ingestion: it pulls each tracked symbol's recent series,
// keeps the trailing window, and reconciles against the store so each
// (symbol, date) persists at most once.
type Engine struct {
	repo        storage.PricesRepository
	fetcher     Fetcher
	maxParallel int
	now         func() time.Time
}

func NewEngine(repo storage.PricesRepository, fetcher Fetcher) *Engine {
	maxParallel := 4
	if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}
	return &Engine{
		repo:        repo,
		fetcher:     fetcher,
		maxParallel: maxParallel,
		now:         time.Now,
	}
}

// Run executes one ingestion pass.
//
// Behavior:
//   - clearFirst empties the table before anything else.
//   - weeks <= 0 skips all provider calls and leaves the table as is.
//   - Symbols are fetched concurrently; a provider failure for one
//     symbol does not abort the others.
//   - All surviving observations are persisted in a single transaction
//     with insert-or-ignore semantics, so an existing (symbol, date)
//     row is never overwritten and re-runs add nothing.
//
// It returns a human-readable status summary; the error is non-nil when
// the run as a whole failed (storage failure, or no symbol could be
// fetched at all).
func (e *Engine) Run(ctx context.Context, symbols []string, weeks int, clearFirst bool) (string, error) {
	var status strings.Builder

	if clearFirst {
		if err := e.repo.DeleteAllObservations(); err != nil {
			return fmt.Sprintf("Failed to empty the table [%v].", err), err
		}
		logger.L().Info().Msg("observations table emptied")
		status.WriteString("Table has been emptied. ")
	}

	if weeks <= 0 {
		status.WriteString("No data has been added to the database.")
		return status.String(), nil
	}

	cutoff := truncateToDate(e.now()).AddDate(0, 0, -weeks*7)
	logger.L().Info().
		Strs("symbols", symbols).
		Int("weeks", weeks).
		Time("cutoff", cutoff).
		Msg("ingestion start")

	perSymbol := make([][]models.PriceObservation, len(symbols))
	var mu sync.Mutex
	var failed []string
	var fetchErr error

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, e.maxParallel)

	for i, symbol := range symbols {
		idx := i
		sym := strings.ToUpper(strings.TrimSpace(symbol))
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()

			series, err := e.fetcher.FetchDailySeries(gctx, sym)
			if err != nil {
				logger.L().Error().Str("symbol", sym).Err(err).Msg("provider fetch failed")
				mu.Lock()
				failed = append(failed, sym)
				if fetchErr == nil {
					fetchErr = err
				}
				mu.Unlock()
				return nil
			}

			kept := make([]models.PriceObservation, 0, len(series))
			for _, day := range series {
				if day.Date.Before(cutoff) {
					continue
				}
				kept = append(kept, models.PriceObservation{
					Symbol:     sym,
					Date:       day.Date,
					OpenPrice:  day.OpenPrice,
					ClosePrice: day.ClosePrice,
					Volume:     day.Volume,
				})
			}
			perSymbol[idx] = kept

			logger.L().Info().
				Str("symbol", sym).
				Int("fetched", len(series)).
				Int("in_window", len(kept)).
				Dur("elapsed", time.Since(start)).
				Msg("symbol fetched")
			return nil
		})
	}

	// Goroutines only report provider failures via the shared slice, so
	// Wait returns nil unless the context was cancelled.
	if err := g.Wait(); err != nil {
		return status.String() + fmt.Sprintf("Failed to fetch data from the provider [%v].", err), err
	}

	if len(failed) == len(symbols) {
		status.WriteString(fmt.Sprintf("Failed to fetch data from the provider [%v].", fetchErr))
		return status.String(), fetchErr
	}

	var batch []models.PriceObservation
	for _, kept := range perSymbol {
		batch = append(batch, kept...)
	}

	inserted, err := e.repo.InsertObservationsBatch(batch)
	if err != nil {
		logger.L().Error().Err(err).Int("rows", len(batch)).Msg("batch insert failed")
		status.WriteString(fmt.Sprintf("Failed to insert data into the database [%v].", err))
		return status.String(), err
	}

	logger.L().Info().
		Int("candidates", len(batch)).
		Int("inserted", inserted).
		Int("skipped_existing", len(batch)-inserted).
		Msg("ingestion done")

	status.WriteString(fmt.Sprintf(
		"Successfully fetched and stored %s stock data for the last %d weeks.",
		strings.Join(symbols, " and "), weeks,
	))
	if len(failed) > 0 {
		status.WriteString(fmt.Sprintf(" Could not fetch: %s.", strings.Join(failed, ", ")))
	}
	return status.String(), nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
