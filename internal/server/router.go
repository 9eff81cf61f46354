package server

import (
	"net/http"

	"do-todo/internal/handlers"
	"do-todo/internal/logging"
	"do-todo/internal/middleware"
	"do-todo/internal/models"

	"github.com/gin-gonic/gin"
)

// Options carries the middleware configuration for NewRouter
type Options struct {
	CORS      *middleware.CORSConfig
	Security  *middleware.SecurityConfig
	RateLimit *middleware.RateLimitConfig
}

// OptionsFromEnv reads every middleware config from the environment
func OptionsFromEnv() Options {
	return Options{
		CORS:      middleware.NewCORSConfigFromEnv(),
		Security:  middleware.NewSecurityConfigFromEnv(),
		RateLimit: middleware.NewRateLimitConfigFromEnv(),
	}
}

// NewRouter builds the gin engine serving the todo API and health endpoints
func NewRouter(todos *handlers.TodoHandler, health *handlers.HealthHandler, opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	if err := router.SetTrustedProxies(opts.Security.TrustedProxies); err != nil {
		logging.Logger.Warnf("Ignoring invalid TRUSTED_PROXIES: %v", err)
		_ = router.SetTrustedProxies(nil)
	}

	// Logger first so it sees the final status, sanitizer next so panics become 500s
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorSanitizer())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(opts.CORS))
	router.Use(middleware.GlobalRateLimiter(opts.RateLimit))
	router.Use(middleware.RequestSizeLimit(opts.Security.MaxRequestBodySize))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Not Found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Detail: "Method Not Allowed"})
	})

	router.GET("/", handlers.Root)

	writeLimit := middleware.WriteRateLimiter(opts.RateLimit)
	validID := middleware.IDValidator("id")

	todoRoutes := router.Group("/todos")
	{
		todoRoutes.POST("/", writeLimit, todos.CreateTodo)
		todoRoutes.GET("/", todos.ListTodos)
		todoRoutes.GET("/:id", validID, todos.GetTodo)
		todoRoutes.PUT("/:id", writeLimit, validID, todos.UpdateTodo)
		todoRoutes.DELETE("/:id", writeLimit, validID, todos.DeleteTodo)
	}

	healthRoutes := router.Group("/health")
	{
		healthRoutes.GET("", health.BasicHealth)
		healthRoutes.GET("/live", health.LivenessProbe)
		healthRoutes.GET("/ready", health.ReadinessProbe)
		healthRoutes.GET("/detailed", health.DetailedHealth)
	}

	return router
}
