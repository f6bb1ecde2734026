// Package logger wraps zerolog with the process-wide defaults used by every
// lostfound component.
package logger

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	Level        string
	Format       string // "console" or "json"
	Service      string
	Writer       io.Writer
	WithCaller   bool
	StaticFields map[string]string
}

// FromEnv reads LOSTFOUND_LOG_LEVEL, LOSTFOUND_LOG_FORMAT and LOSTFOUND_LOG_CALLER.
func FromEnv() Options {
	caller, _ := strconv.ParseBool(os.Getenv("LOSTFOUND_LOG_CALLER"))
	return Options{
		Level:      strings.ToLower(envOr("LOSTFOUND_LOG_LEVEL", "info")),
		Format:     strings.ToLower(envOr("LOSTFOUND_LOG_FORMAT", "console")),
		Service:    "lostfound",
		WithCaller: caller,
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Logger is the project-wide logging type.
type Logger = zerolog.Logger

// Get returns the root logger, initialising it from the environment on first use.
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init builds the root logger. Only the first call has an effect.
func Init(opt Options) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stderr
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if opt.Service != "" {
			ctx = ctx.Str("service", opt.Service)
		}
		for k, v := range opt.StaticFields {
			ctx = ctx.Str(k, v)
		}

		log := ctx.Logger()
		if opt.WithCaller {
			log = log.With().Caller().Logger()
		}
		root.Store(&log)
		inited.Store(true)
	})
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
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var (
	keyChannel = ctxKey{"channel"}
	keyChatID  = ctxKey{"chat_id"}
)

// WithChat annotates ctx with the channel and chat a message came from.
func WithChat(ctx context.Context, channel, chatID string) context.Context {
	if channel != "" {
		ctx = context.WithValue(ctx, keyChannel, channel)
	}
	if chatID != "" {
		ctx = context.WithValue(ctx, keyChatID, chatID)
	}
	return ctx
}

// C returns a child logger carrying the chat fields stored in ctx.
func C(ctx context.Context) *Logger {
	b := Get().With()
	if s, ok := ctx.Value(keyChannel).(string); ok {
		b = b.Str("channel", s)
	}
	if s, ok := ctx.Value(keyChatID).(string); ok {
		b = b.Str("chat_id", s)
	}
	l := b.Logger()
	return &l
}

// Named returns a child logger with a component field.
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
