package models

import "time"

// DateLayout is the calendar-date format used across the API and the provider.
const DateLayout = "2006-01-02"

// PriceObservation is one daily price record for a tracked symbol.
// The pair (Symbol, Date) is unique across the whole table; ingestion
// proposes rows and the database constraint guarantees there is never
// a second row for the same symbol and day.
type PriceObservation struct {
	Symbol     string    // uppercase ticker, max 10 chars
	Date       time.Time // trading day, date-only
	OpenPrice  float64
	ClosePrice float64
	Volume     int64
}

// ObservationFilter narrows queries over the observations table.
// All fields are optional and combinable.
type ObservationFilter struct {
	Symbol    string
	StartDate *time.Time // inclusive lower bound on Date
	EndDate   *time.Time // inclusive upper bound on Date
}

// Pagination describes one page of a filtered result set.
// Count is the total number of matching rows ignoring the page bounds.
type Pagination struct {
	Count int `json:"count" example:"42"`
	Page  int `json:"page" example:"1"`
	Limit int `json:"limit" example:"5"`
	Pages int `json:"pages" example:"9"`
}

// ObservationPage is the result of a paginated list query.
type ObservationPage struct {
	Observations []PriceObservation
	Pagination   Pagination
}
