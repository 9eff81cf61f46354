package logging

import (
	"io"
	"os"

	"do-todo/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds configuration for logging
type LogConfig struct {
	Enabled    bool   // Enable/disable file logging
	FilePath   string // Path to log file
	MaxSize    int    // Maximum size in megabytes before rotation
	MaxBackups int    // Maximum number of old log files to retain
	MaxAge     int    // Maximum number of days to retain old log files
	Compress   bool   // Compress rotated log files
	Level      string // Log level (trace, debug, info, warn, error, fatal, panic)
	JSONFormat bool   // Use JSON format instead of text
}

// Logger is the process-wide logger. InitLogger must run before it is used.
var Logger = logrus.New()

// InitLogger replaces Logger with one built from config and returns it
func InitLogger(cfg *LogConfig) *logrus.Logger {
	Logger = logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		Logger.Warnf("Invalid log level '%s', using 'info'", cfg.Level)
	}
	Logger.SetLevel(level)

	if cfg.JSONFormat {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if cfg.Enabled && cfg.FilePath != "" {
		logWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		// Write to both file and stdout
		Logger.SetOutput(io.MultiWriter(os.Stdout, logWriter))

		Logger.Infof("File logging enabled: %s (max size: %dMB, max backups: %d, max age: %d days)",
			cfg.FilePath, cfg.MaxSize, cfg.MaxBackups, cfg.MaxAge)
	} else {
		Logger.SetOutput(os.Stdout)
		Logger.Debug("File logging disabled, logging to stdout only")
	}

	return Logger
}

// NewLogConfigFromEnv creates a LogConfig from environment variables.
// File logging is off unless LOG_FILE_ENABLED is set; containers log to stdout.
func NewLogConfigFromEnv() *LogConfig {
	return &LogConfig{
		Enabled:    config.GetEnvBool("LOG_FILE_ENABLED", false),
		FilePath:   config.GetEnv("LOG_FILE_PATH", "./logs/do-todo.log"),
		MaxSize:    config.GetEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: config.GetEnvInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     config.GetEnvInt("LOG_MAX_AGE_DAYS", 28),
		Compress:   config.GetEnvBool("LOG_COMPRESS", true),
		Level:      config.GetEnv("LOG_LEVEL", "info"),
		JSONFormat: config.GetEnvBool("LOG_JSON_FORMAT", false),
	}
}
