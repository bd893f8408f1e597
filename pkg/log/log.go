// Package log configures [log/slog] handlers and carries loggers through
// [context.Context].
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace"

	charmlog "github.com/charmbracelet/log"
)

type (
	Format string
	Level  string
)

const (
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"

	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")

	AllFormats = []string{
		string(FormatJSON),
		string(FormatLogfmt),
		string(FormatText),
	}
	AllLevels = []string{
		string(LevelError),
		string(LevelWarn),
		string(LevelInfo),
		string(LevelDebug),
	}

	levels = map[Level]slog.Level{
		LevelError: slog.LevelError,
		LevelWarn:  slog.LevelWarn,
		"warning":  slog.LevelWarn,
		LevelInfo:  slog.LevelInfo,
		LevelDebug: slog.LevelDebug,
	}
)

// Options configures a handler created by [NewHandler].
type Options struct {
	Format Format
	Level  slog.Level
}

// ParseOptions parses a level and format name, ignoring case.
func ParseOptions(level, format string) (Options, error) {
	lvl, ok := levels[Level(strings.ToLower(level))]
	if !ok {
		return Options{}, fmt.Errorf("%w: %w %q", ErrInvalidArgument, ErrUnknownLogLevel, level)
	}

	f := Format(strings.ToLower(format))
	switch f {
	case FormatJSON, FormatLogfmt, FormatText:
	default:
		return Options{}, fmt.Errorf("%w: %w %q", ErrInvalidArgument, ErrUnknownLogFormat, format)
	}

	return Options{Format: f, Level: lvl}, nil
}

// New creates a logger writing to w.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	opts, err := ParseOptions(level, format)
	if err != nil {
		return nil, err
	}

	return slog.New(NewHandler(w, opts)), nil
}

// NewHandler creates a handler writing to w. Records logged with a context
// holding a valid span get trace_id and span_id attributes.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	var h slog.Handler

	switch opts.Format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: opts.Level})
	case FormatLogfmt:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true, Level: opts.Level})
	default:
		h = newTextHandler(w, opts.Level)
	}

	return traceHandler{h}
}

// newTextHandler creates a human-readable handler. Callers are only
// reported at debug level.
func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(level),
		Formatter:       charmlog.TextFormatter,
		ReportTimestamp: true,
		ReportCaller:    level <= slog.LevelDebug,
		TimeFormat:      time.StampMilli,
	})
	logger.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())

	return logger
}

type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return h.Handler.Handle(ctx, r) //nolint:wrapcheck // Return the original error.
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

type loggerKey struct{}

// NewContext returns a copy of ctx carrying logger, which is returned by
// [WithContext].
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithContext returns the logger stored in ctx, or the default logger.
func WithContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}
