// Package sqltrace logs SQL statements issued through the store adapters
package sqltrace

import (
	"context"
	"strings"

	"beesync/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement after it ran
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives query events
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL, independent of the process-wide level
// component is "pg" or "sqlite"
func Tracer(root logger.Logger, component string) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", component).Logger()
	return &zlTracer{log: ll, msg: component + " query"}
}

type zlTracer struct {
	log logger.Logger
	msg string
}

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	log := logger.From(ctx, &z.log)
	evt := log.Info()
	if ev.Slow {
		evt = log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", Compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg(z.msg)
}

// IsSlow reports whether elapsedUS crosses slowMs; a negative slowMs disables marking
func IsSlow(elapsedUS int64, slowMs int) bool {
	return slowMs >= 0 && elapsedUS >= int64(slowMs)*1000
}

// Compact folds runs of whitespace into single spaces
func Compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
