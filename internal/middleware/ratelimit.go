package middleware

import (
	"net/http"
	"strconv"
	"time"

	"do-todo/internal/config"
	"do-todo/internal/logging"
	"do-todo/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int64
}

// NewRateLimitConfigFromEnv creates rate limit config from environment variables
func NewRateLimitConfigFromEnv() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:        config.GetEnvBool("RATE_LIMIT_ENABLED", true),
		RequestsPerMin: int64(config.GetEnvInt("RATE_LIMIT_REQUESTS_PER_MIN", 120)),
	}
}

// GlobalRateLimiter limits every client IP to RequestsPerMin requests per minute
func GlobalRateLimiter(cfg *RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		logging.Logger.Info("Rate limiting is disabled")
		return passThrough
	}

	logging.Logger.Infof("Rate limiting enabled: %d requests per minute", cfg.RequestsPerMin)
	return newIPLimiter("global", cfg.RequestsPerMin)
}

// WriteRateLimiter applies a stricter, separately counted limit to mutating routes
func WriteRateLimiter(cfg *RateLimitConfig) gin.HandlerFunc {
	limit := cfg.RequestsPerMin / 2
	if !cfg.Enabled || limit <= 0 {
		return passThrough
	}
	return newIPLimiter("write", limit)
}

func passThrough(c *gin.Context) {
	c.Next()
}

func newIPLimiter(limitType string, perMinute int64) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  perMinute,
	}
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		logging.Logger.WithFields(map[string]interface{}{
			"request_id":    RequestID(c),
			"client_ip":     c.ClientIP(),
			"path":          c.Request.URL.Path,
			"method":        c.Request.Method,
			"limit_type":    limitType,
			"limit_per_min": perMinute,
		}).Warn("Rate limit exceeded")

		c.Header("Retry-After", strconv.Itoa(int(rate.Period.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Detail: "Too many requests. Please try again later.",
		})
	}))
}
