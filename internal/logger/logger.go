// Package logger configures the global zerolog logger and hands out
// request-, session- and component-scoped children.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const (
	milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"
	callerWidth     = 30
	// maxBodyLog truncates logged request and response bodies.
	maxBodyLog = 1000
)

var (
	componentMu     sync.RWMutex
	componentLevels = map[string]zerolog.Level{}
)

// Init configures the global logger from the environment:
//
//	LOG_LEVEL   global level (default info)
//	LOG_LEVELS  per-component overrides, e.g. "turn=debug,advisor=warn"
//	LOG_FORMAT  "console" (default) or "json"
//	LOG_FILE    also append to this file
func Init() {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}

	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	SetComponentLevels(os.Getenv("LOG_LEVELS"))

	var output io.Writer = os.Stdout
	if os.Getenv("LOG_FORMAT") != "json" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: milliTimeFormat,
			NoColor:    !isDevelopmentMode(),
		}
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		f, ferr := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if ferr == nil {
			output = io.MultiWriter(output, f)
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	log.Info().
		Str("level", level.String()).
		Bool("dev", isDevelopmentMode()).
		Msg("Logger initialized")
}

func isDevelopmentMode() bool {
	return os.Getenv("DEV") == "true" || os.Getenv("DEV_MODE") == "true"
}

// SetComponentLevels parses "name=level,..." overrides. Unknown levels are
// ignored. An empty spec clears all overrides.
func SetComponentLevels(spec string) {
	levels := make(map[string]zerolog.Level)
	for _, part := range strings.Split(spec, ",") {
		name, lvl, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if l, err := zerolog.ParseLevel(strings.TrimSpace(lvl)); err == nil {
			levels[strings.TrimSpace(name)] = l
		}
	}
	componentMu.Lock()
	componentLevels = levels
	componentMu.Unlock()
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// Component returns a child of the global logger tagged with a component
// name, for example "turn" or "advisor", at that component's level.
func Component(name string) zerolog.Logger {
	l := log.Logger.With().Str("component", name).Logger()
	componentMu.RLock()
	lvl, ok := componentLevels[name]
	componentMu.RUnlock()
	if ok {
		l = l.Level(lvl)
	}
	return l
}

// NewRequestID returns a short random request id.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID from context, or empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ForRequest returns a logger enriched with the request ID from context.
func ForRequest(ctx context.Context) zerolog.Logger {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return log.Logger
	}
	return log.Logger.With().Str("requestId", id).Logger()
}

// ForSession is ForRequest plus the session id.
func ForSession(ctx context.Context, sessionID string) zerolog.Logger {
	l := ForRequest(ctx)
	return l.With().Str("sessionId", sessionID).Logger()
}

// LogBody logs an HTTP body at debug level under kind ("request" or
// "response"), truncated to maxBodyLog bytes.
func LogBody(l zerolog.Logger, kind string, body []byte) {
	if len(body) == 0 {
		return
	}
	ev := l.Debug()
	if len(body) > maxBodyLog {
		body = body[:maxBodyLog]
		ev = ev.Bool("truncated", true)
	}
	ev.Str(kind+"_body", string(body)).Msg("Body")
}
