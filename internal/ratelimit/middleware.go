package ratelimit

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/brettearl18/checkin-v5-sub001/internal/errors"
	"github.com/brettearl18/checkin-v5-sub001/internal/monitoring"
)

// IPMiddleware enforces the per-IP request limit on every route it wraps.
func IPMiddleware(limiter *RateLimiter, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.AllowIP(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Limiter trouble never blocks traffic.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if metrics != nil {
				metrics.IncrementRateLimitIPBlock()
			}
			appErr := appErrors.NewRateLimitError(result.RetryAfter.String())
			appErrors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}

// SubmissionMiddleware enforces the daily per-client submission limit. It
// expects the client id in the request body to have been bound already and
// stored on the context.
func SubmissionMiddleware(limiter *RateLimiter, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString("client_id")
		if clientID == "" {
			c.Next()
			return
		}

		result, err := limiter.AllowSubmission(c.Request.Context(), clientID)
		if err != nil {
			c.Next()
			return
		}

		if !result.Allowed {
			appErr := appErrors.NewRateLimitError(result.RetryAfter.String())
			appErrors.LogError(c, appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}
