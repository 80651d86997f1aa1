package service

import (
	"context"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/storage"
)

// ListParams carries the already-parsed inputs of a list query.
// Symbol and the date bounds are optional; Page and Limit must be
// positive (the boundary layer applies the 1/5 defaults for absent
// parameters).
type ListParams struct {
	Symbol    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// QueryService validates and executes paginated observation queries.
type QueryService interface {
	ListObservations(ctx context.Context, params ListParams) (*models.ObservationPage, error)
}

type queryService struct {
	repo storage.PricesRepository
}

func NewQueryService(repo storage.PricesRepository) QueryService {
	return &queryService{repo: repo}
}

// ListObservations returns one page of observations plus pagination
// metadata. Validation failures come back as *dto.APIError values so
// the boundary layer can render the safe-empty envelope; any other
// error is a storage failure.
func (s *queryService) ListObservations(_ context.Context, params ListParams) (*models.ObservationPage, error) {
	if params.Page <= 0 || params.Limit <= 0 {
		return nil, dto.ErrInvalidPagination
	}
	if params.StartDate != nil && params.EndDate != nil && params.StartDate.After(*params.EndDate) {
		return nil, dto.ErrDateRangeInverted
	}

	filter := models.ObservationFilter{
		Symbol:    params.Symbol,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
	}

	offset := (params.Page - 1) * params.Limit
	observations, total, err := s.repo.ListObservations(filter, offset, params.Limit)
	if err != nil {
		return nil, err
	}

	pages := (total + params.Limit - 1) / params.Limit
	if params.Page > pages {
		return nil, dto.ErrPageOutOfRange
	}

	return &models.ObservationPage{
		Observations: observations,
		Pagination: models.Pagination{
			Count: total,
			Page:  params.Page,
			Limit: params.Limit,
			Pages: pages,
		},
	}, nil
}
