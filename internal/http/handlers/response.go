// Package handlers provides HTTP handler implementations for the relay's
// operational endpoints. This file defines the shared error envelope so every
// failure response carries a stable code and the request's correlation ID.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raphiebot/go-discord-relay/internal/http/middleware"
)

// Error codes returned by this surface.
const (
	ErrCodeNotFound = "not_found"
	ErrCodeInternal = "internal_error"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code
	Code string `json:"code"`
	// Human-readable message
	Message string `json:"message"`
}

// Fail aborts the request with a structured error. Server-side errors (>=500)
// are logged with the request-scoped logger.
func Fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}
