package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"decktracker/internal/ratelimit"
)

const RequestIDKey = "request_id"

// RequestID tags every request with an ID, attaches a request-scoped
// logger to the context, and logs start/completion with timing.
func RequestID(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(RequestIDKey, requestID)

		loggerWithID := logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(loggerWithID.WithContext(c.Request.Context()))

		loggerWithID.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("remote_addr", c.ClientIP()).
			Msg("request started")

		c.Next()

		duration := time.Since(start)
		loggerWithID.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("request completed")
	}
}

// CallerBudget rejects callers that exhausted their request budget.
// Denial is immediate with 429; callers are expected to back off.
func CallerBudget(budget *ratelimit.CallerBudget, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := budget.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// A budget-store outage should not take the API down.
			logger.Warn().Err(err).Msg("caller budget check failed, allowing request")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}
