package api

import (
	"errors"
	"net/http"

	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/BerylCAtieno/profilegen/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgRateLimited   = "Rate limit exceeded. Please try again later."
	msgQuotaExceeded = "Credits exhausted. Please add funds to your workspace."
	msgTimedOut      = "Profile generation timed out. Please try again."
	msgInternal      = "Failed to generate profiles. Please try again later."
)

// ErrorStatus maps a pipeline or validation error to its HTTP status.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// PublicError builds the client-facing body for err. Only validation errors
// carry their own message; everything else gets a fixed message, and 5xx
// errors get a reference id that ties the response to the server log line.
func PublicError(err error) (int, ErrorResponse, string) {
	status := ErrorStatus(err)

	switch status {
	case http.StatusBadRequest:
		return status, ErrorResponse{Error: err.Error()}, ""
	case http.StatusTooManyRequests:
		return status, ErrorResponse{Error: msgRateLimited}, ""
	case http.StatusPaymentRequired:
		return status, ErrorResponse{Error: msgQuotaExceeded}, ""
	}

	ref := uuid.NewString()
	msg := msgInternal
	if errors.Is(err, models.ErrTimedOut) {
		msg = msgTimedOut
	}
	return status, ErrorResponse{Error: msg, Details: "reference: " + ref}, ref
}

func writeError(c *gin.Context, err error) {
	status, body, ref := PublicError(err)

	log := observability.GetLogger(c.Request.Context())
	if ref != "" {
		log.Error("request failed", zap.String("reference", ref), zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}

	c.AbortWithStatusJSON(status, body)
}
