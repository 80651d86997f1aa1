package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/service"
)

const (
	defaultPage  = 1
	defaultLimit = 5
	defaultWeeks = 2
)

// IngestionTrigger starts one ingestion run. Implemented by the
// ingestion engine; declared here so handlers depend on behavior only.
type IngestionTrigger interface {
	Run(ctx context.Context, symbols []string, weeks int, clearFirst bool) (string, error)
}

// Handler provides the HTTP handlers of the financial-data API.
//
// Responsibilities:
//   - Parse and coerce query parameters
//   - Delegate to the query/statistics/ingestion layers
//   - Map results and typed errors onto the response envelopes
type Handler struct {
	query   service.QueryService
	stats   service.StatisticsService
	ingest  IngestionTrigger
	symbols []string
}

func NewHandler(query service.QueryService, stats service.StatisticsService, ingest IngestionTrigger, symbols []string) *Handler {
	return &Handler{query: query, stats: stats, ingest: ingest, symbols: symbols}
}

// Home handles GET /.
//
// Home godoc
// @Summary      API greeting
// @Tags         financial-data
// @Produce      plain
// @Success      200  {string}  string
// @Router       / [get]
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, dto.MessageHello)
}

// Retrieve handles GET /retrieve: it triggers one ingestion run over
// the tracked symbols and returns the run's status string.
//
// Retrieve godoc
// @Summary      Trigger an ingestion run
// @Description  Fetches the tracked symbols from the provider and stores the trailing window without duplicates
// @Tags         ingestion
// @Produce      plain
// @Param        weeks  query  int  false  "Trailing window in weeks"  default(2)
// @Param        clear  query  int  false  "Empty the table first (1 to enable)"  default(0)
// @Success      200  {string}  string
// @Failure      400  {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500  {string}  string  "Run failed"
// @Router       /retrieve [get]
func (h *Handler) Retrieve(c *gin.Context) {
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", strconv.Itoa(defaultWeeks)))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("weeks must be an integer", err))
		return
	}
	clearRaw, err := strconv.Atoi(c.DefaultQuery("clear", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("clear must be an integer", err))
		return
	}

	status, err := h.ingest.Run(c.Request.Context(), h.symbols, weeks, clearRaw > 0)
	if err != nil {
		c.String(http.StatusInternalServerError, status)
		return
	}
	c.String(http.StatusOK, status)
}

// GetFinancialData handles GET /api/financial_data.
//
// Validation failures return 400 with the safe-empty envelope: an empty
// data array, zeroed pagination, and the error message in info.
//
// GetFinancialData godoc
// @Summary      List stored observations
// @Description  Returns observations filtered by symbol and date range, paginated and ordered by date ascending
// @Tags         financial-data
// @Produce      json
// @Param        start_date  query  string  false  "Inclusive lower date bound (YYYY-MM-DD)"  example(2023-01-01)
// @Param        end_date    query  string  false  "Inclusive upper date bound (YYYY-MM-DD)"  example(2023-01-31)
// @Param        symbol      query  string  false  "Exact symbol match"  example(IBM)
// @Param        page        query  int     false  "Page number"  default(1)
// @Param        limit       query  int     false  "Page size"  default(5)
// @Success      200  {object}  dto.FinancialDataResponse
// @Failure      400  {object}  dto.FinancialDataResponse
// @Failure      500  {object}  dto.FinancialDataResponse
// @Router       /api/financial_data [get]
func (h *Handler) GetFinancialData(c *gin.Context) {
	params := service.ListParams{
		Symbol: strings.TrimSpace(c.Query("symbol")),
	}

	var parseErr error
	params.StartDate, parseErr = parseDateParam(c.Query("start_date"))
	if parseErr == nil {
		params.EndDate, parseErr = parseDateParam(c.Query("end_date"))
	}
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, dto.NewFinancialDataError(dto.ErrInvalidDate))
		return
	}

	params.Page, parseErr = parseIntParam(c, "page", defaultPage)
	if parseErr == nil {
		params.Limit, parseErr = parseIntParam(c, "limit", defaultLimit)
	}
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, dto.NewFinancialDataError(dto.ErrInvalidPagination))
		return
	}

	page, err := h.query.ListObservations(c.Request.Context(), params)
	if err != nil {
		var apiErr *dto.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadRequest, dto.NewFinancialDataError(apiErr))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewFinancialDataError(errFinancialDataFetch))
		return
	}

	c.JSON(http.StatusOK, dto.NewFinancialDataResponse(page))
}

// GetStatistics handles GET /api/statistics.
//
// GetStatistics godoc
// @Summary      Average statistics over a date range
// @Description  Returns average daily open price, close price, and volume for the selected symbols
// @Tags         financial-data
// @Produce      json
// @Param        start_date  query  string    true  "Inclusive lower date bound (YYYY-MM-DD)"  example(2023-01-01)
// @Param        end_date    query  string    true  "Inclusive upper date bound (YYYY-MM-DD)"  example(2023-01-31)
// @Param        symbol      query  []string  true  "Symbols to aggregate (repeatable)"  collectionFormat(multi)
// @Success      200  {object}  dto.StatisticsResponse
// @Failure      400  {object}  dto.StatisticsResponse
// @Failure      500  {object}  dto.StatisticsResponse
// @Router       /api/statistics [get]
func (h *Handler) GetStatistics(c *gin.Context) {
	params := service.StatsParams{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Symbols:   c.QueryArray("symbol"),
	}

	stats, err := h.stats.AverageStats(c.Request.Context(), params)
	if err != nil {
		var apiErr *dto.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadRequest, dto.NewStatisticsError(apiErr))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewStatisticsError(errStatisticsFetch))
		return
	}

	c.JSON(http.StatusOK, dto.NewStatisticsResponse(stats))
}

// Internal failures are reported generically; details stay in the logs.
var (
	errFinancialDataFetch = errors.New("failed to fetch financial data")
	errStatisticsFetch    = errors.New("failed to compute statistics")
)

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseIntParam(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
