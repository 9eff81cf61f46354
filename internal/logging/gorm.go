package logging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM's query log through logrus
type GormLogger struct {
	logger        *logrus.Logger
	level         gormlogger.LogLevel
	echo          bool
	slowThreshold time.Duration
}

// NewGormLogger returns a GORM logger writing to l.
// With echo every statement is logged at info level; otherwise only
// errors and queries slower than slowThreshold are reported.
func NewGormLogger(l *logrus.Logger, echo bool, slowThreshold time.Duration) *GormLogger {
	level := gormlogger.Warn
	if echo {
		level = gormlogger.Info
	}
	return &GormLogger{
		logger:        l,
		level:         level,
		echo:          echo,
		slowThreshold: slowThreshold,
	}
}

// LogMode implements gormlogger.Interface
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.logger.WithField("component", "gorm").Infof(msg, args...)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.logger.WithField("component", "gorm").Warnf(msg, args...)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.logger.WithField("component", "gorm").Errorf(msg, args...)
	}
}

// Trace logs a finished statement
func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := g.logger.WithFields(logrus.Fields{
		"component":  "gorm",
		"sql":        sql,
		"rows":       rows,
		"latency_ms": elapsed.Milliseconds(),
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		entry.WithField("error", err.Error()).Error("Query failed")
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		entry.Warn(fmt.Sprintf("Slow query (>%s)", g.slowThreshold))
	case g.echo && g.level >= gormlogger.Info:
		entry.Info("Query")
	}
}
