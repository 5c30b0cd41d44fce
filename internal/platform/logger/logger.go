// Package logger wraps zerolog with the process defaults used by every beesync binary
// and carries run and goal fields through context
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"beesync/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger
type Options struct {
	Level        string
	Format       string
	Service      string
	Component    string
	Writer       io.Writer
	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string

	// File, when set, tees JSON lines into a rotating file next to the primary writer
	File           string
	FileMaxMB      int
	FileMaxBackups int
	FileMaxAgeDays int
}

// FromEnv builds Options from LOG_* using the raw config view, which does not log
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:          strings.ToLower(rc.Get("LEVEL", "info")),
		Format:         strings.ToLower(rc.Get("FORMAT", "console")),
		Service:        rc.Get("SERVICE", "beesync"),
		Component:      rc.Get("COMPONENT", ""),
		WithCaller:     rc.GetBool("CALLER", false),
		SampleEvery:    rc.GetInt("SAMPLE_EVERY", 0),
		File:           rc.Get("FILE", ""),
		FileMaxMB:      rc.GetInt("FILE_MAX_MB", 50),
		FileMaxBackups: rc.GetInt("FILE_MAX_BACKUPS", 5),
		FileMaxAgeDays: rc.GetInt("FILE_MAX_AGE_DAYS", 28),
	}
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Get returns the process-wide root logger, initialising it from env on first use
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init configures zerolog and builds the root logger; only the first call has effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		log := zerolog.New(writer(opt)).Level(parseLevel(opt.Level))
		fields := log.With().Timestamp()

		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			fields = fields.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			fields = fields.Str("service", opt.Service)
		}
		if opt.Component != "" {
			fields = fields.Str("component", opt.Component)
		}
		for k, v := range opt.StaticFields {
			fields = fields.Str(k, v)
		}
		if opt.WithCaller {
			fields = fields.Caller()
		}

		log = fields.Logger()
		if opt.SampleEvery > 1 {
			log = log.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}

		root.Store(&log)
		inited.Store(true)
	})
}

// writer picks the primary output and optionally tees a rotating file
func writer(opt Options) io.Writer {
	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if opt.File == "" {
		return w
	}
	file := &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    opt.FileMaxMB,
		MaxBackups: opt.FileMaxBackups,
		MaxAge:     opt.FileMaxAgeDays,
		Compress:   true,
	}
	return zerolog.MultiLevelWriter(w, file)
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var (
	keyRequestID = ctxKey{"req_id"}
	keyGoal      = ctxKey{"goal"}
)

// WithRequest annotates ctx with a request or run id and the goal slug being worked on
func WithRequest(ctx context.Context, reqID, goal string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, keyRequestID, reqID)
	}
	if goal != "" {
		ctx = context.WithValue(ctx, keyGoal, goal)
	}
	return ctx
}

// RequestID returns the id stored by WithRequest, if any
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(keyRequestID).(string)
	return s
}

// C returns a child of the root logger carrying the request_id and goal from ctx
func C(ctx context.Context) *Logger {
	return From(ctx, Get())
}

// From enriches base with the request_id and goal from ctx
func From(ctx context.Context, base *Logger) *Logger {
	b := base.With()
	if s, ok := ctx.Value(keyRequestID).(string); ok && s != "" {
		b = b.Str("request_id", s)
	}
	if s, ok := ctx.Value(keyGoal).(string); ok && s != "" {
		b = b.Str("goal", s)
	}
	ll := b.Logger()
	return &ll
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}
