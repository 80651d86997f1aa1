package dto

// MessageHello is the greeting served at the API root.
const MessageHello = "Hello! This is a program that retrieves IBM and Apple stock data."

// APIError is a validation failure with a canonical, client-facing
// message. The set of instances below is closed: every validation path
// in the query and statistics services maps to exactly one of them, so
// clients can match on stable strings.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

var (
	// ErrDateRangeInverted is returned when end_date precedes start_date.
	ErrDateRangeInverted = &APIError{Message: "An end_date must be more or equal than a start_date"}

	// ErrMissingStatisticsParams is returned when the statistics query
	// lacks a start date, an end date, or any symbol.
	ErrMissingStatisticsParams = &APIError{Message: "Please specify all the required parameters: start_date, end_date and at least one symbol from [IBM, AAPL] as symbol."}

	// ErrPageOutOfRange is returned when the requested page exceeds the
	// number of pages available for the filter.
	ErrPageOutOfRange = &APIError{Message: "This page is not exists within the specified conditions"}

	// ErrInvalidDate is returned when a date parameter is not a valid
	// YYYY-MM-DD calendar date.
	ErrInvalidDate = &APIError{Message: "Dates must be specified in the YYYY-MM-DD format"}

	// ErrInvalidPagination is returned when page or limit is not a
	// positive integer.
	ErrInvalidPagination = &APIError{Message: "page and limit must be positive integers"}

	// ErrNoStatisticsData is returned when no observations match the
	// statistics selection, so there is nothing to average.
	ErrNoStatisticsData = &APIError{Message: "No data exists within the specified conditions"}
)
