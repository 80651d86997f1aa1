package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
	pq "github.com/lib/pq"
)

// PricesRepository defines the contract for observation persistence.
type PricesRepository interface {
	InsertObservationIfAbsent(obs models.PriceObservation) (bool, error)
	InsertObservationsBatch(observations []models.PriceObservation) (int, error)
	ListObservations(filter models.ObservationFilter, offset, limit int) ([]models.PriceObservation, int, error)
	AverageStats(symbols []string, startDate, endDate time.Time) (*models.AverageStats, error)
	DeleteAllObservations() error
}

type pricesRepository struct {
	db *sql.DB
}

func NewPricesRepository(db *sql.DB) PricesRepository {
	return &pricesRepository{db: db}
}

const insertObservationSQL = `
		INSERT INTO price_observations (symbol, date, open_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date) DO NOTHING
	`

// InsertObservationIfAbsent proposes a single row. The unique constraint
// on (symbol, date) makes the call idempotent: a conflicting row is left
// untouched and the method reports false.
func (r *pricesRepository) InsertObservationIfAbsent(obs models.PriceObservation) (bool, error) {
	res, err := r.db.Exec(insertObservationSQL,
		obs.Symbol, obs.Date, obs.OpenPrice, obs.ClosePrice, obs.Volume)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertObservationsBatch inserts a set of observations in one
// transaction and returns how many rows were actually new. Rows whose
// (symbol, date) already exists are skipped by the conflict clause, so
// re-running an ingestion window never duplicates data. Any failure
// rolls the whole batch back.
func (r *pricesRepository) InsertObservationsBatch(observations []models.PriceObservation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(insertObservationSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	inserted := 0
	for _, obs := range observations {
		res, err := stmt.Exec(obs.Symbol, obs.Date, obs.OpenPrice, obs.ClosePrice, obs.Volume)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			inserted++
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// buildFilter expands an ObservationFilter into a WHERE clause with
// positional placeholders. $1..$n depend on which filters are set.
func buildFilter(filter models.ObservationFilter) (string, []interface{}) {
	conditions := "TRUE"
	var args []interface{}

	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		conditions += fmt.Sprintf(" AND symbol = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	return conditions, args
}

// ListObservations returns one page of matching observations ordered by
// date ascending, plus the total count of matching rows ignoring the
// page bounds so callers can compute page totals.
func (r *pricesRepository) ListObservations(filter models.ObservationFilter, offset, limit int) ([]models.PriceObservation, int, error) {
	conditions, args := buildFilter(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM price_observations WHERE %s`, conditions)
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(args, limit, offset)
	pageQuery := fmt.Sprintf(`
		SELECT symbol, date, open_price, close_price, volume
		FROM price_observations
		WHERE %s
		ORDER BY date ASC, symbol ASC
		LIMIT $%d OFFSET $%d
	`, conditions, len(args)+1, len(args)+2)

	rows, err := r.db.Query(pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.PriceObservation
	for rows.Next() {
		var obs models.PriceObservation
		if err := rows.Scan(&obs.Symbol, &obs.Date, &obs.OpenPrice, &obs.ClosePrice, &obs.Volume); err != nil {
			return nil, 0, err
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// AverageStats computes average open price, close price, and volume over
// all observations for the given symbols within [startDate, endDate].
// When no rows match, every aggregate is NULL and the method returns
// (nil, nil) so callers can distinguish "no data" from a storage error.
func (r *pricesRepository) AverageStats(symbols []string, startDate, endDate time.Time) (*models.AverageStats, error) {
	query := `
		SELECT AVG(open_price) AS avg_open, AVG(close_price) AS avg_close, AVG(volume) AS avg_volume
		FROM price_observations
		WHERE symbol = ANY($1) AND date >= $2 AND date <= $3
	`

	var avgOpen, avgClose, avgVolume sql.NullFloat64
	err := r.db.QueryRow(query, pq.Array(symbols), startDate, endDate).Scan(&avgOpen, &avgClose, &avgVolume)
	if err != nil {
		return nil, err
	}

	if !avgOpen.Valid && !avgClose.Valid && !avgVolume.Valid {
		return nil, nil
	}

	return &models.AverageStats{
		OpenPrice:  avgOpen.Float64,
		ClosePrice: avgClose.Float64,
		Volume:     avgVolume.Float64,
	}, nil
}

// DeleteAllObservations empties the table. Used only by explicit reset
// flows (the clear flag on an ingestion trigger).
func (r *pricesRepository) DeleteAllObservations() error {
	_, err := r.db.Exec(`DELETE FROM price_observations`)
	return err
}
