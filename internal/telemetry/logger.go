// Package telemetry provides ambient logging and metrics for every JMS
// service: a colorized slog handler for interactive terminals (grounded
// on the teacher's internal/telemetry.prettyHandler, extended to print
// structured attrs and to detect TTYs via github.com/mattn/go-isatty
// instead of always coloring), and the counters/gauges in metrics.go.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

var logger *slog.Logger

func Init(level slog.Level) {
	logger = slog.New(newPrettyHandler(os.Stderr, level))
	slog.SetDefault(logger)
}

func L() *slog.Logger {
	if logger == nil {
		Init(slog.LevelInfo)
	}
	return logger
}

func Infof(format string, args ...any)  { L().Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { L().Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { L().Error(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { L().Debug(fmt.Sprintf(format, args...)) }
func Plainf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

// ParseLogLevel converts a string level name to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
	colorReset  = "\x1b[0m"
)

// prettyHandler outputs: [2026-02-21 5:10:39 PM PST] message key=value ...
// Colors are only emitted when w is a real terminal, checked once at
// construction via isatty — piping logs to a file or another process
// never embeds escape codes.
type prettyHandler struct {
	w      io.Writer
	level  slog.Level
	color  bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func newPrettyHandler(w io.Writer, level slog.Level) *prettyHandler {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &prettyHandler{w: w, level: level, color: color, mu: &sync.Mutex{}}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format("2006-01-02 3:04:05 PM MST")

	prefix, color := "", ""
	switch {
	case r.Level >= slog.LevelError:
		prefix, color = "ERROR: ", colorRed
	case r.Level >= slog.LevelWarn:
		prefix, color = "WARN: ", colorYellow
	}

	var fields strings.Builder
	for _, a := range h.attrs {
		writeAttr(&fields, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&fields, h.groups, a)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.color && color != "" {
		_, err = fmt.Fprintf(h.w, "[%s] %s%s%s%s%s\n", ts, color, prefix, r.Message, colorReset, fields.String())
	} else {
		_, err = fmt.Fprintf(h.w, "[%s] %s%s%s\n", ts, prefix, r.Message, fields.String())
	}
	return err
}

func writeAttr(b *strings.Builder, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteByte(' ')
	for _, g := range groups {
		b.WriteString(g)
		b.WriteByte('.')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	fmt.Fprintf(b, "%v", a.Value.Any())
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}
