package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/storage"
)

// StatsParams carries the raw inputs of a statistics query. Dates arrive
// as strings because their presence is part of the validation contract.
type StatsParams struct {
	StartDate string
	EndDate   string
	Symbols   []string
}

// StatisticsService validates and executes multi-symbol average queries.
type StatisticsService interface {
	AverageStats(ctx context.Context, params StatsParams) (*models.Statistics, error)
}

type statisticsService struct {
	repo storage.PricesRepository
}

func NewStatisticsService(repo storage.PricesRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// AverageStats computes the average open price, close price, and volume
// over the selection. Prices are rounded to 2 decimal places and volume
// to the nearest integer. A selection matching no rows yields
// dto.ErrNoStatisticsData rather than zeroed averages.
func (s *statisticsService) AverageStats(_ context.Context, params StatsParams) (*models.Statistics, error) {
	if params.StartDate == "" || params.EndDate == "" || len(params.Symbols) == 0 {
		return nil, dto.ErrMissingStatisticsParams
	}

	start, err := time.Parse(models.DateLayout, params.StartDate)
	if err != nil {
		return nil, dto.ErrInvalidDate
	}
	end, err := time.Parse(models.DateLayout, params.EndDate)
	if err != nil {
		return nil, dto.ErrInvalidDate
	}
	if start.After(end) {
		return nil, dto.ErrDateRangeInverted
	}

	raw, err := s.repo.AverageStats(params.Symbols, start, end)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, dto.ErrNoStatisticsData
	}

	return &models.Statistics{
		StartDate:         start,
		EndDate:           end,
		Symbols:           params.Symbols,
		AverageOpenPrice:  decimal.NewFromFloat(raw.OpenPrice).Round(2).InexactFloat64(),
		AverageClosePrice: decimal.NewFromFloat(raw.ClosePrice).Round(2).InexactFloat64(),
		AverageVolume:     decimal.NewFromFloat(raw.Volume).Round(0).IntPart(),
	}, nil
}
