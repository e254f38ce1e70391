package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// #region new-logger
// NewLogger builds the diagnostics logger. Every record that passes the
// level goes to both the leveled text sink and the in-app echo.
func NewLogger(sink io.Writer, echo *Echo, level slog.Level) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level}),
	}
	if echo != nil {
		handlers = append(handlers, &echoHandler{echo: echo, level: level})
	}
	return slog.New(&teeHandler{handlers: handlers})
}

// ParseLevel maps a config string onto a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
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
// #endregion new-logger

// #region tee
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
// #endregion tee

// #region echo-handler
// echoHandler strips everything except the message text.
type echoHandler struct {
	echo  *Echo
	level slog.Level
}

func (h *echoHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *echoHandler) Handle(_ context.Context, r slog.Record) error {
	h.echo.Append(r.Message)
	return nil
}

func (h *echoHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *echoHandler) WithGroup(string) slog.Handler { return h }
// #endregion echo-handler
