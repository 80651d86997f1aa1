package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
	"github.com/guttosm/stockpulse/internal/storage"
)

var _ storage.PricesRepository = (*fakeRepo)(nil)

// fakeRepo implements storage.PricesRepository with in-memory (symbol, date) keys.
type fakeRepo struct {
	mu       sync.Mutex
	rows     map[string]models.PriceObservation
	cleared  bool
	batchErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]models.PriceObservation{}}
}

func key(obs models.PriceObservation) string {
	return obs.Symbol + "|" + obs.Date.Format(models.DateLayout)
}

func (f *fakeRepo) InsertObservationIfAbsent(obs models.PriceObservation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[key(obs)]; ok {
		return false, nil
	}
	f.rows[key(obs)] = obs
	return true, nil
}

func (f *fakeRepo) InsertObservationsBatch(observations []models.PriceObservation) (int, error) {
	if f.batchErr != nil {
		return 0, f.batchErr
	}
	inserted := 0
	for _, obs := range observations {
		if ok, _ := f.InsertObservationIfAbsent(obs); ok {
			inserted++
		}
	}
	return inserted, nil
}

func (f *fakeRepo) ListObservations(models.ObservationFilter, int, int) ([]models.PriceObservation, int, error) {
	return nil, len(f.rows), nil
}

func (f *fakeRepo) AverageStats([]string, time.Time, time.Time) (*models.AverageStats, error) {
	return nil, nil
}

func (f *fakeRepo) DeleteAllObservations() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	f.rows = map[string]models.PriceObservation{}
	return nil
}

// fakeFetcher serves canned series per symbol and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	series map[string][]alphavantage.DailyObservation
	errs   map[string]error
	calls  int
}

func (f *fakeFetcher) FetchDailySeries(_ context.Context, symbol string) ([]alphavantage.DailyObservation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.series[symbol], nil
}

func day(t time.Time, offset int) alphavantage.DailyObservation {
	d := t.AddDate(0, 0, -offset)
	return alphavantage.DailyObservation{
		Date:       time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		OpenPrice:  100 + float64(offset),
		ClosePrice: 101 + float64(offset),
		Volume:     int64(1000 + offset),
	}
}

func newTestEngine(repo *fakeRepo, fetcher *fakeFetcher, now time.Time) *Engine {
	e := NewEngine(repo, fetcher)
	e.now = func() time.Time { return now }
	return e
}

func TestRun_WeeksZeroSkipsProvider(t *testing.T) {
	repo := newFakeRepo()
	fetcher := &fakeFetcher{}
	e := newTestEngine(repo, fetcher, time.Now())

	status, err := e.Run(context.Background(), []string{"IBM", "AAPL"}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(status, "No data has been added") {
		t.Fatalf("unexpected status: %q", status)
	}
	if fetcher.calls != 0 {
		t.Fatalf("provider was called %d times", fetcher.calls)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("store not empty: %d rows", len(repo.rows))
	}
}

func TestRun_ClearFirstEmptiesTable(t *testing.T) {
	repo := newFakeRepo()
	_, _ = repo.InsertObservationIfAbsent(models.PriceObservation{Symbol: "IBM", Date: time.Now()})
	fetcher := &fakeFetcher{}
	e := newTestEngine(repo, fetcher, time.Now())

	status, err := e.Run(context.Background(), []string{"IBM"}, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.cleared || len(repo.rows) != 0 {
		t.Fatalf("table was not emptied")
	}
	if !strings.HasPrefix(status, "Table has been emptied. ") {
		t.Fatalf("unexpected status: %q", status)
	}
}

func TestRun_FetchFilterStore(t *testing.T) {
	now := time.Date(2023, 1, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fetcher := &fakeFetcher{series: map[string][]alphavantage.DailyObservation{
		// 10 days inside the 2-week window, 5 older than the cutoff
		"IBM":  seriesFor(now, 10, 5),
		"AAPL": seriesFor(now, 10, 5),
	}}
	e := newTestEngine(repo, fetcher, now)

	status, err := e.Run(context.Background(), []string{"IBM", "AAPL"}, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 20 {
		t.Fatalf("rows=%d want 20", len(repo.rows))
	}
	if !strings.Contains(status, "Successfully fetched and stored") {
		t.Fatalf("unexpected status: %q", status)
	}

	// Re-running the same window must not add rows.
	_, err = e.Run(context.Background(), []string{"IBM", "AAPL"}, 2, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(repo.rows) != 20 {
		t.Fatalf("rerun changed row count to %d", len(repo.rows))
	}
}

// seriesFor builds inWindow days on/after the 2-week cutoff and older
// days before it, newest first.
func seriesFor(now time.Time, inWindow, older int) []alphavantage.DailyObservation {
	var out []alphavantage.DailyObservation
	for i := 0; i < inWindow; i++ {
		out = append(out, day(now, i)) // now-0 … now-9, all within 14 days
	}
	for i := 0; i < older; i++ {
		out = append(out, day(now, 15+i)) // beyond the cutoff
	}
	return out
}

func TestRun_WindowCutoffInclusive(t *testing.T) {
	now := time.Date(2023, 1, 20, 23, 59, 59, 0, time.UTC)
	repo := newFakeRepo()
	fetcher := &fakeFetcher{series: map[string][]alphavantage.DailyObservation{
		"IBM": {day(now, 14), day(now, 15)}, // exactly on cutoff, one past it
	}}
	e := newTestEngine(repo, fetcher, now)

	if _, err := e.Run(context.Background(), []string{"IBM"}, 2, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows=%d want 1 (cutoff day is inclusive, older day dropped)", len(repo.rows))
	}
}

func TestRun_ProviderFailureDoesNotAbortOthers(t *testing.T) {
	now := time.Date(2023, 1, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fetcher := &fakeFetcher{
		series: map[string][]alphavantage.DailyObservation{"AAPL": {day(now, 1)}},
		errs:   map[string]error{"IBM": errors.New("503 from provider")},
	}
	e := newTestEngine(repo, fetcher, now)

	status, err := e.Run(context.Background(), []string{"IBM", "AAPL"}, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows=%d want 1", len(repo.rows))
	}
	if !strings.Contains(status, "Could not fetch: IBM") {
		t.Fatalf("status does not report failed symbol: %q", status)
	}
}

func TestRun_AllProvidersFailing(t *testing.T) {
	now := time.Date(2023, 1, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fetcher := &fakeFetcher{errs: map[string]error{
		"IBM":  errors.New("boom"),
		"AAPL": errors.New("boom"),
	}}
	e := newTestEngine(repo, fetcher, now)

	status, err := e.Run(context.Background(), []string{"IBM", "AAPL"}, 2, false)
	if err == nil {
		t.Fatalf("expected error when no symbol could be fetched")
	}
	if !strings.Contains(status, "Failed to fetch data from the provider") {
		t.Fatalf("unexpected status: %q", status)
	}
}

func TestRun_StorageFailureAbortsRun(t *testing.T) {
	now := time.Date(2023, 1, 20, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.batchErr = errors.New("deadlock detected")
	fetcher := &fakeFetcher{series: map[string][]alphavantage.DailyObservation{
		"IBM": {day(now, 1)},
	}}
	e := newTestEngine(repo, fetcher, now)

	status, err := e.Run(context.Background(), []string{"IBM"}, 2, false)
	if err == nil {
		t.Fatalf("expected storage error to fail the run")
	}
	if !strings.Contains(status, "Failed to insert data into the database") {
		t.Fatalf("unexpected status: %q", status)
	}
}
