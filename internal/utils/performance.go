package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowQueryThreshold is the warehouse round trip duration above which a
// statement is logged at warn level.
const SlowQueryThreshold = 10 * time.Second

// Timer measures one operation and logs its duration when stopped.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named operation.
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Msg("Operation completed")

	return duration
}

// MeasureQuery returns a func that logs a warehouse statement's duration and
// row count. Usage:
//
//	done := utils.MeasureQuery("dashboard", log)
//	defer func() { done(len(rows)) }()
func MeasureQuery(queryName string, log zerolog.Logger) func(rows int) {
	start := time.Now()

	return func(rows int) {
		duration := time.Since(start)

		log.Debug().
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int("rows", rows).
			Msg("Warehouse query completed")

		if duration > SlowQueryThreshold {
			log.Warn().
				Str("query", queryName).
				Dur("duration", duration).
				Int("rows", rows).
				Msg("Slow warehouse query detected")
		}
	}
}
