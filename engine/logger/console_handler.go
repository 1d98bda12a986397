package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// ConsoleHandler is a slog.Handler producing single-line, human readable records.
// The level label is coloured through termenv according to the detected terminal profile,
// so redirected output stays free of escape sequences.
type ConsoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

var _ slog.Handler = &ConsoleHandler{}

// NewConsoleHandler creates a ConsoleHandler writing to w.
//
// Parameters:
//   - w: destination writer
//   - level: minimum level that is written
//
// Returns:
//   - *ConsoleHandler: the handler
func NewConsoleHandler(w io.Writer, level slog.Leveler, opts ...termenv.OutputOption) *ConsoleHandler {
	return &ConsoleHandler{
		mu:    &sync.Mutex{},
		w:     w,
		out:   termenv.NewOutput(w, opts...),
		level: level,
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := &bytes.Buffer{}
	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(time.TimeOnly))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.colourLevel(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return c
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	return &c
}

func (h *ConsoleHandler) colourLevel(l slog.Level) string {
	name := fmt.Sprintf("%-5s", LevelName(l))
	var colour string
	switch {
	case l >= slog.LevelError:
		colour = "1"
	case l >= slog.LevelWarn:
		colour = "3"
	case l >= slog.LevelInfo:
		colour = "4"
	default:
		colour = "8"
	}
	return h.out.String(name).Foreground(h.out.Color(colour)).Bold().String()
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, g := range a.Value.Group() {
			writeAttr(buf, p, g)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	s := a.Value.String()
	if needsQuote(s) {
		fmt.Fprintf(buf, "%q", s)
		return
	}
	buf.WriteString(s)
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == '=' || r == '"' || r < 0x20 {
			return true
		}
	}
	return false
}
