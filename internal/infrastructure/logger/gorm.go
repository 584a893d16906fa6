package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger sends GORM's statement log to zap. Statement entries carry the
// trace, request, session and customer ids of the call that issued them, so a
// stock decrement can be matched to the checkout that ran it.
//
// Lookups that find nothing are not logged: the repositories turn them into
// domain not-found errors.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger builds the database logger. Statements slower than slow are
// logged at warn; zero disables the slow statement log.
func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	return &GormLogger{log: log.Named("db"), level: level, slow: slow}
}

// LogMode returns a copy at level
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	notFound := errors.Is(err, gormlogger.ErrRecordNotFound)

	var (
		emit  func(string, ...zap.Field)
		extra []zap.Field
	)
	msg := "statement executed"
	cl := WithLogger(ctx, l.log)
	switch {
	case err != nil && !notFound:
		if l.level < gormlogger.Error {
			return
		}
		emit, msg = cl.Error, "statement failed"
		extra = append(extra, zap.Error(err))
	case l.slow > 0 && elapsed > l.slow:
		if l.level < gormlogger.Warn {
			return
		}
		emit, msg = cl.Warn, "slow statement"
		extra = append(extra, zap.Duration("threshold", l.slow))
	default:
		if l.level < gormlogger.Info {
			return
		}
		emit = cl.Debug
	}

	sql, rows := fc()
	emit(msg, append([]zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}, extra...)...)
}

// MapGormLogLevel derives the statement log level from the application log
// level. Individual statements only appear at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
