package logger

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger writes gorm logs to the global zerolog logger.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger creates a gorm logger. SQL statements are traced at debug
// level only when the global level is debug.
func NewGormLogger(slowThreshold time.Duration) *GormLogger {
	level := gormlogger.Warn
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		level = gormlogger.Info
	}
	return &GormLogger{level: level, slowThreshold: slowThreshold}
}

// LogMode implements gormlogger.Interface.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	nl := *l
	nl.level = level
	return &nl
}

// Info implements gormlogger.Interface.
func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		zlog.Info().Msgf("gorm: "+msg, args...)
	}
}

// Warn implements gormlogger.Interface.
func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		zlog.Warn().Msgf("gorm: "+msg, args...)
	}
}

// Error implements gormlogger.Interface.
func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		zlog.Error().Msgf("gorm: "+msg, args...)
	}
}

// Trace implements gormlogger.Interface.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		zlog.Error().Msgf("gorm: query failed: elapsed=%v rows=%d sql=%s error=%v", elapsed, rows, sql, err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		zlog.Warn().Msgf("gorm: slow query: elapsed=%v rows=%d sql=%s", elapsed, rows, sql)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		zlog.Debug().Msgf("gorm: elapsed=%v rows=%d sql=%s", elapsed, rows, sql)
	}
}
