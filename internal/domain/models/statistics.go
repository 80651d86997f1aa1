package models

import "time"

// AverageStats holds the raw averages computed by the store over a
// symbol/date-range selection. Values are unrounded; presentation
// rounding happens in the service layer.
type AverageStats struct {
	OpenPrice  float64
	ClosePrice float64
	Volume     float64
}

// Statistics is the rounded, client-facing aggregation result for a
// multi-symbol, date-bounded average query.
type Statistics struct {
	StartDate         time.Time
	EndDate           time.Time
	Symbols           []string
	AverageOpenPrice  float64
	AverageClosePrice float64
	AverageVolume     int64
}
