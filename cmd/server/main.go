package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"do-todo/internal/config"
	"do-todo/internal/database"
	"do-todo/internal/handlers"
	"do-todo/internal/logging"
	"do-todo/internal/server"
	"do-todo/internal/storage"
	dbtls "do-todo/internal/tls"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serve runs the startup lifecycle: connect, initialize tables once, listen,
// and shut down gracefully on SIGINT or SIGTERM
func serve(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logging.Logger.Fatalf("Invalid configuration: %v", err)
	}

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		store    storage.Store
		sessions *database.SessionProvider
		db       *gorm.DB
	)

	if cfg.UseMemoryStorage {
		logging.Logger.Info("Using in-memory storage")
		store = storage.NewStorage()
	} else {
		db = connectAndInitialize(cfg)
		sessions = database.NewSessionProvider(db)
		store = storage.NewPostgresStorage(sessions)
		logging.Logger.Info("PostgreSQL storage initialized successfully")
	}

	router := server.NewRouter(
		handlers.NewTodoHandler(store),
		handlers.NewHealthHandler(sessions),
		server.OptionsFromEnv(),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Starting server on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigCh:
		logging.Logger.Infof("Received %s, shutting down", sig)
	case err, ok := <-serveErr:
		if ok {
			logging.Logger.Errorf("Server failed: %v", err)
			exitCode = 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("Graceful shutdown failed: %v", err)
	}

	if db != nil {
		if err := database.Close(db); err != nil {
			logging.Logger.Errorf("Failed to close database: %v", err)
		}
	}
	logging.Logger.Info("Server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// connectAndInitialize opens the pool and runs the table initializer. Both are fatal on failure.
func connectAndInitialize(cfg *config.Config) *gorm.DB {
	db, err := database.Connect(cfg.Database, dbtls.NewConfigFromEnv(cfg.Database.SSLMode))
	if err != nil {
		logging.Logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logging.Logger.Fatalf("Failed to initialize tables: %v", err)
	}
	return db
}
