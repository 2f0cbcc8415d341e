package logging

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

const consoleTimeFormat = "2006-01-02 15:04:05"

// consoleHandler renders one compact line per record:
//
//	2024-01-01 12:00:00 INFO  fetched page records=1000 total=3000
type consoleHandler struct {
	mu    sync.Mutex
	out   io.Writer
	level *slog.LevelVar
	attrs []slog.Attr
	color bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &consoleHandler{
		out:   w,
		level: lvl,
		color: writerSupportsColor(w),
	}
}

func writerSupportsColor(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, rec slog.Record) error {
	var sb strings.Builder
	sb.WriteString(rec.Time.Format(consoleTimeFormat))
	sb.WriteByte(' ')
	sb.WriteString(h.levelLabel(rec.Level))
	sb.WriteByte(' ')
	sb.WriteString(rec.Message)

	for _, attr := range h.attrs {
		appendAttr(&sb, attr)
	}
	rec.Attrs(func(attr slog.Attr) bool {
		appendAttr(&sb, attr)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	label := fmt.Sprintf("%-5s", level.String())
	if !h.color {
		return label
	}
	switch {
	case level >= slog.LevelError:
		return "\x1b[31m" + label + "\x1b[0m"
	case level >= slog.LevelWarn:
		return "\x1b[33m" + label + "\x1b[0m"
	case level <= slog.LevelDebug:
		return "\x1b[2m" + label + "\x1b[0m"
	default:
		return label
	}
}

func appendAttr(sb *strings.Builder, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(attr.Key)
	sb.WriteByte('=')
	value := attr.Value.String()
	if strings.ContainsAny(value, " \t") {
		sb.WriteString(fmt.Sprintf("%q", value))
	} else {
		sb.WriteString(value)
	}
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &consoleHandler{
		out:   h.out,
		level: h.level,
		attrs: combined,
		color: h.color,
	}
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; the pipeline never nests them.
	return h
}
