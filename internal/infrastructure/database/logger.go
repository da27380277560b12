package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// zerologGorm routes GORM logs to the global zerolog logger.
type zerologGorm struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewLogger returns a GORM logger writing through zerolog. Queries slower than slow are
// logged at warn level.
func NewLogger(level gormlogger.LogLevel, slow time.Duration) gormlogger.Interface {
	return zerologGorm{level: level, slowThreshold: slow}
}

func (l zerologGorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	l.level = level
	return l
}

func (l zerologGorm) Info(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		log.Info().Msg(fmt.Sprintf(s, args...))
	}
}

func (l zerologGorm) Warn(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		log.Warn().Msg(fmt.Sprintf(s, args...))
	}
}

func (l zerologGorm) Error(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		log.Error().Msg(fmt.Sprintf(s, args...))
	}
}

func (l zerologGorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query error")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query")
	}
}
