package dto

import "github.com/guttosm/stockpulse/internal/domain/models"

// StatisticsData echoes the requested selection alongside the averages.
type StatisticsData struct {
	StartDate              string   `json:"start_date" example:"2023-01-01"`
	EndDate                string   `json:"end_date" example:"2023-01-31"`
	Symbols                []string `json:"symbols" example:"IBM,AAPL"`
	AverageDailyOpenPrice  float64  `json:"average_daily_open_price" example:"138.22"`
	AverageDailyClosePrice float64  `json:"average_daily_close_price" example:"139.74"`
	AverageDailyVolume     int64    `json:"average_daily_volume" example:"5271258"`
}

// StatisticsResponse is the envelope of GET /api/statistics. On failure
// Data renders as an empty object, mirroring the list endpoint's
// safe-empty contract.
//
// swagger:model StatisticsResponse
type StatisticsResponse struct {
	Data any  `json:"data" swaggertype:"object"`
	Info Info `json:"info"`
}

// NewStatisticsResponse maps a computed statistics result into the
// response envelope.
func NewStatisticsResponse(stats *models.Statistics) StatisticsResponse {
	return StatisticsResponse{
		Data: StatisticsData{
			StartDate:              stats.StartDate.Format(models.DateLayout),
			EndDate:                stats.EndDate.Format(models.DateLayout),
			Symbols:                stats.Symbols,
			AverageDailyOpenPrice:  stats.AverageOpenPrice,
			AverageDailyClosePrice: stats.AverageClosePrice,
			AverageDailyVolume:     stats.AverageVolume,
		},
		Info: Info{},
	}
}

// NewStatisticsError builds the empty-data envelope for a failed
// statistics query.
func NewStatisticsError(err error) StatisticsResponse {
	return StatisticsResponse{
		Data: struct{}{},
		Info: Info{Error: err.Error()},
	}
}
