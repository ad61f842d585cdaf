package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// textHandler is a compact slog.Handler for interactive use:
// timestamp, colored level, message, then key=value attrs.
type textHandler struct {
	opts     *slog.HandlerOptions
	w        io.Writer
	mu       *sync.Mutex
	attrs    []slog.Attr
	useColor bool
}

func newTextHandler(w io.Writer, opts *slog.HandlerOptions, useColor bool) *textHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &textHandler{
		opts:     opts,
		w:        w,
		mu:       &sync.Mutex{},
		useColor: useColor,
	}
}

func (h *textHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return lvl >= min
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	// Format into a local buffer; only the write itself is under lock.
	var buf []byte
	buf = fmt.Appendf(buf, "[%s] [%s] %s",
		r.Time.Format("2006-01-02 15:04:05"), h.levelString(r.Level), r.Message)

	for _, a := range h.attrs {
		buf = h.appendAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	_, err := h.w.Write(buf)
	h.mu.Unlock()
	return err
}

func (h *textHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if h.useColor {
		return fmt.Appendf(buf, " %s%s=%v%s", colorGray, a.Key, a.Value, colorReset)
	}
	return fmt.Appendf(buf, " %s=%v", a.Key, a.Value)
}

func (h *textHandler) levelString(lvl slog.Level) string {
	var name, color string
	switch {
	case lvl >= slog.LevelError:
		name, color = "ERROR", colorRed
	case lvl >= slog.LevelWarn:
		name, color = "WARN", colorYellow
	case lvl >= slog.LevelInfo:
		name, color = "INFO", colorGreen
	default:
		name, color = "DEBUG", colorGray
	}
	if h.useColor {
		return color + name + colorReset
	}
	return name
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &h2
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; shardpack never nests log attributes.
	return h
}
