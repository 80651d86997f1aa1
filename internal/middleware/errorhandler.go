package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/logger"
)

// ErrorHandler converts errors attached to the gin context (via
// c.Error) into a standardized JSON error response. Handlers that have
// already written a response are left alone.
var ErrorHandler gin.HandlerFunc = func(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}

	logger.L().Error().Err(err).Int("status", status).Msg("request failed")
	c.JSON(status, dto.NewErrorResponse("request failed", err))
}

// AbortWithError records err on the context and aborts the request with
// a standardized JSON error body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
