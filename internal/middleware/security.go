package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"do-todo/internal/config"
	"do-todo/internal/logging"
	"do-todo/internal/models"

	"github.com/gin-gonic/gin"
)

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	MaxRequestBodySize int64    // Maximum request body size in bytes
	TrustedProxies     []string // Proxies whose X-Forwarded-For is honoured
}

// NewSecurityConfigFromEnv creates security config from environment variables
func NewSecurityConfigFromEnv() *SecurityConfig {
	return &SecurityConfig{
		MaxRequestBodySize: int64(config.GetEnvInt("MAX_REQUEST_BODY_SIZE", 1048576)), // 1MB
		TrustedProxies:     config.SplitCommaSeparated(config.GetEnv("TRUSTED_PROXIES", "")),
	}
}

// SecurityHeaders adds security-related HTTP headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}

// RequestSizeLimit rejects bodies larger than maxSize
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			logging.Logger.WithFields(map[string]interface{}{
				"request_id":     RequestID(c),
				"client_ip":      c.ClientIP(),
				"content_length": c.Request.ContentLength,
				"max_size":       maxSize,
			}).Warn("Request body too large")

			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Detail: fmt.Sprintf("Request body too large (max %d bytes)", maxSize),
			})
			return
		}

		// Chunked bodies have no Content-Length; cap the reader too
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}

// ErrorSanitizer logs errors attached with c.Error and recovers panics.
// Clients only ever see a generic 500 detail for server-side failures.
func ErrorSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logging.Logger.WithFields(map[string]interface{}{
					"request_id": RequestID(c),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"panic":      fmt.Sprint(recovered),
				}).Error("Recovered from panic")

				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
					Detail: "Internal Server Error",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		logging.Logger.WithFields(map[string]interface{}{
			"request_id": RequestID(c),
			"client_ip":  c.ClientIP(),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"error":      c.Errors.Last().Error(),
		}).Error("Request error")

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Detail: "Internal Server Error",
			})
		}
	}
}

// IDValidator rejects path parameters that are not base-10 integers with 422
func IDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, param := range params {
			raw := c.Param(param)
			if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
				logging.Logger.WithFields(map[string]interface{}{
					"request_id": RequestID(c),
					"client_ip":  c.ClientIP(),
					"path":       c.Request.URL.Path,
					"param":      param,
					"value":      raw,
				}).Warn("Invalid id format")

				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.ErrorResponse{
					Detail: param + ": must be an integer, got '" + raw + "'",
				})
				return
			}
		}
		c.Next()
	}
}
