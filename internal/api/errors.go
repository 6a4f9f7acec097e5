package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/httputil"
	"github.com/crossidm/idsync/internal/metrics"
	"github.com/crossidm/idsync/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps service-layer sentinel errors onto HTTP statuses.
// Anything unrecognized is logged and reported as a 500 without leaking the
// underlying error text.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, op string) {
	switch {
	case errors.Is(err, models.ErrSyncConfigNotFound),
		errors.Is(err, models.ErrSystemNotFound),
		errors.Is(err, models.ErrEntityNotFound),
		errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrMissingMapping):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicateKey),
		errors.Is(err, models.ErrSyncAlreadyRunning),
		errors.Is(err, models.ErrSyncNotRunning):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, models.ErrUnsupportedAction),
		errors.Is(err, models.ErrUnsupportedEntityType),
		errors.Is(err, models.ErrUIDAttributeNotFound):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	default:
		log.WithError(err).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
