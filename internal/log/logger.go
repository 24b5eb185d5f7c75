// Package log builds the slog handlers used across pagevec and carries
// correlation IDs through contexts.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/helixml/pagevec/internal/config"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// CorrelationIDAttr is the attribute key added to records logged with a
// context that carries a correlation ID.
const CorrelationIDAttr = "correlation_id"

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ParseLevel maps a configured level name to a slog level. Unknown names
// mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a handler writing to w in the given format. Records
// logged with a *Context method pick up the context's correlation ID.
func NewHandler(w io.Writer, format config.LogFormat, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	switch format {
	case config.LogFormatJSON:
		inner = slog.NewJSONHandler(w, opts)
	default:
		inner = newTerminalHandler(w, opts, isTerminal(w))
	}
	return &contextHandler{inner: inner}
}

// New creates a logger for the configuration writing to w.
func New(cfg config.AppConfig, w io.Writer) *slog.Logger {
	return slog.New(NewHandler(w, cfg.LogFormat(), ParseLevel(cfg.LogLevel())))
}

// Configure creates a logger writing to stderr and installs it as the slog
// default. Stdout stays free for command output and the MCP stdio transport.
func Configure(cfg config.AppConfig) *slog.Logger {
	l := New(cfg, os.Stderr)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationID(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String(CorrelationIDAttr, id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
