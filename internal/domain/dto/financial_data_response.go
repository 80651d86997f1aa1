package dto

import (
	"strconv"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// ObservationDTO is one observation row as rendered by the API.
// Numeric fields are strings by contract (clients treat them opaquely).
type ObservationDTO struct {
	Symbol     string `json:"symbol" example:"IBM"`
	Date       string `json:"date" example:"2023-01-03"`
	OpenPrice  string `json:"open_price" example:"142.06"`
	ClosePrice string `json:"close_price" example:"144.31"`
	Volume     string `json:"volume" example:"3934848"`
}

// Info carries the error slot of a response envelope; empty on success.
type Info struct {
	Error string `json:"error" example:""`
}

// FinancialDataResponse is the envelope of GET /api/financial_data.
//
// swagger:model FinancialDataResponse
type FinancialDataResponse struct {
	Data       []ObservationDTO  `json:"data"`
	Pagination models.Pagination `json:"pagination"`
	Info       Info              `json:"info"`
}

// NewFinancialDataResponse maps a successful query result into the
// response envelope.
func NewFinancialDataResponse(page *models.ObservationPage) FinancialDataResponse {
	data := make([]ObservationDTO, 0, len(page.Observations))
	for _, obs := range page.Observations {
		data = append(data, ObservationDTO{
			Symbol:     obs.Symbol,
			Date:       obs.Date.Format(models.DateLayout),
			OpenPrice:  strconv.FormatFloat(obs.OpenPrice, 'f', -1, 64),
			ClosePrice: strconv.FormatFloat(obs.ClosePrice, 'f', -1, 64),
			Volume:     strconv.FormatInt(obs.Volume, 10),
		})
	}
	return FinancialDataResponse{
		Data:       data,
		Pagination: page.Pagination,
		Info:       Info{},
	}
}

// NewFinancialDataError builds the safe-empty envelope for a failed
// query: no rows, zeroed pagination, the error message in info.
func NewFinancialDataError(err error) FinancialDataResponse {
	return FinancialDataResponse{
		Data:       []ObservationDTO{},
		Pagination: models.Pagination{},
		Info:       Info{Error: err.Error()},
	}
}
