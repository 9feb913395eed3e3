package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/service/editing"
	"github.com/mamadbah2/salesboard/internal/service/reporting"
	"github.com/mamadbah2/salesboard/pkg/clients/inventory"
)

// errNotFound is returned when a day has no entry or a product is unknown.
var errNotFound = errors.New("not found")

var errMissingDate = errors.New("date is required")

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	var apiErr *inventory.APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, editing.ErrPending):
		return http.StatusConflict
	case errors.Is(err, reporting.ErrNoData),
		errors.Is(err, errNotFound),
		errors.Is(err, editing.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, editing.ErrInvalidItem),
		errors.Is(err, editing.ErrRowOutOfRange),
		errors.Is(err, editing.ErrNotEditing),
		errors.Is(err, calendar.ErrUnknownView),
		errors.Is(err, calendar.ErrUnknownDirection):
		return http.StatusBadRequest
	case errors.As(err, &urlErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders err as the {"error": ...} payload. Backend errors also
// carry the upstream status.
func errorBody(err error) gin.H {
	var apiErr *inventory.APIError
	if errors.As(err, &apiErr) {
		return gin.H{"error": apiErr.Message, "status": apiErr.Status}
	}
	if errors.Is(err, reporting.ErrNoData) {
		return gin.H{"error": reporting.NoDataMessage}
	}
	return gin.H{"error": err.Error()}
}

func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Warn(msg, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, errorBody(err))
}

func badRequest(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
