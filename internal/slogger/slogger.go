// Package slogger is a compact slog handler for the command line. Records
// can be filtered by glob patterns over their attributes, written either as
// "key" or as "key=value".
package slogger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/term"

	"tractor.dev/assetvfs/internal/glob"
)

type HandlerOptions struct {
	Level   slog.Leveler
	Include []string // If non-empty, only records with an attr matching ANY pattern are logged
	Exclude []string // Records with an attr matching ANY pattern are dropped

	// Output defaults to stderr. Colors are used only when it is a
	// terminal.
	Output io.Writer
}

type Handler struct {
	opts   HandlerOptions
	color  bool
	attrs  []slog.Attr
	prefix string

	mu *sync.Mutex
}

// matches checks if the attribute matches any of the given patterns. Nil
// values never match "key=*" so that "err=*" selects only real errors.
func matches(key string, value any, patterns []string) bool {
	valueStr := "<nil>"
	if value != nil {
		valueStr = fmt.Sprintf("%v", value)
	}
	full := key + "=" + valueStr
	for _, pattern := range patterns {
		if value == nil && strings.HasSuffix(pattern, "=*") {
			if glob.MatchString(strings.TrimSuffix(pattern, "=*"), key) {
				continue
			}
		}
		if glob.MatchString(pattern, full) || glob.MatchString(pattern, key) {
			return true
		}
	}
	return false
}

// shouldInclude determines if a record passes the include and exclude
// filters.
func (h *Handler) shouldInclude(r slog.Record) bool {
	if len(h.opts.Include) == 0 && len(h.opts.Exclude) == 0 {
		return true
	}
	var included, excluded bool
	h.eachAttr(r, func(key string, v slog.Value) {
		if len(h.opts.Include) > 0 && matches(key, v.Any(), h.opts.Include) {
			included = true
		}
		if len(h.opts.Exclude) > 0 && matches(key, v.Any(), h.opts.Exclude) {
			excluded = true
		}
	})
	if len(h.opts.Include) > 0 && !included {
		return false
	}
	return !excluded
}

func (h *Handler) eachAttr(r slog.Record, fn func(key string, v slog.Value)) {
	for _, a := range h.attrs {
		fn(a.Key, a.Value.Resolve())
	}
	r.Attrs(func(a slog.Attr) bool {
		fn(h.prefix+a.Key, a.Value.Resolve())
		return true
	})
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *Handler) gray(s string) string {
	if !h.color {
		return s
	}
	return "\033[90m" + s + "\033[0m"
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if !h.shouldInclude(r) {
		return nil
	}

	var attrs []string
	h.eachAttr(r, func(key string, v slog.Value) {
		valueStr := "<nil>"
		if v.Any() != nil {
			valueStr = fmt.Sprintf("%v", v.Any())
		}
		attrs = append(attrs, h.gray(key+"=")+valueStr)
	})

	file, line := "???", 0
	pkgName := "???"
	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			file, line = filepath.Base(frame.File), frame.Line
			pkgName = filepath.Base(filepath.Dir(frame.File))
		}
	}

	var b strings.Builder
	b.WriteString(h.gray(r.Time.Format("15:04:05.000")))
	if r.Level != slog.LevelInfo {
		b.WriteString(" " + r.Level.String())
	}
	fmt.Fprintf(&b, " %s: %s", pkgName, r.Message)
	if len(attrs) > 0 {
		b.WriteString(" " + strings.Join(attrs, " "))
	}
	b.WriteString(" " + h.gray(fmt.Sprintf("%s:%d", file, line)) + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.opts.Output, b.String())
	return err
}

// NewHandler returns a Handler writing to opts.Output.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	h := &Handler{opts: opts, mu: &sync.Mutex{}}
	if f, ok := opts.Output.(*os.File); ok {
		h.color = term.IsTerminal(int(f.Fd()))
	}
	return h
}

func New(level slog.Level) *slog.Logger {
	return NewWithOptions(HandlerOptions{Level: level})
}

func NewWithOptions(opts HandlerOptions) *slog.Logger {
	return slog.New(NewHandler(opts))
}

func Use(level slog.Level) {
	slog.SetDefault(New(level))
}

// ParseLevel accepts the slog level names, case insensitively, with
// optional offsets such as "debug-4".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("slogger: %w", err)
	}
	return level, nil
}
