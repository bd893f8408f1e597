package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulekit/pkg/log"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level   string
		format  string
		want    string
		wantErr error
	}{
		"json": {
			level:  "info",
			format: "json",
			want:   `"msg":"loaded rules"`,
		},
		"logfmt": {
			level:  "debug",
			format: "logfmt",
			want:   `msg="loaded rules"`,
		},
		"text": {
			level:  "INFO",
			format: "TEXT",
			want:   "loaded rules",
		},
		"warning alias": {
			level:  "warning",
			format: "json",
		},
		"unknown level": {
			level:   "trace",
			format:  "json",
			wantErr: log.ErrUnknownLogLevel,
		},
		"unknown format": {
			level:   "info",
			format:  "yaml",
			wantErr: log.ErrUnknownLogFormat,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger, err := log.New(&buf, tc.level, tc.format)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.ErrorIs(t, err, log.ErrInvalidArgument)

				return
			}

			require.NoError(t, err)

			logger.Info("loaded rules", slog.Int("count", 2))

			if tc.want == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tc.want)
			}
		})
	}
}

func TestNewHandler_Trace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(log.NewHandler(&buf, log.Options{Format: log.FormatJSON, Level: slog.LevelInfo}))

	logger.InfoContext(t.Context(), "no span")
	assert.NotContains(t, buf.String(), "trace_id")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(t.Context(), sc)

	logger.With(slog.String("tool", "get_rule")).InfoContext(ctx, "with span")
	assert.Contains(t, buf.String(), `"trace_id":"`+sc.TraceID().String()+`"`)
	assert.Contains(t, buf.String(), `"span_id":"`+sc.SpanID().String()+`"`)
	assert.Contains(t, buf.String(), `"tool":"get_rule"`)
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With(slog.String("tool", "list_rules"))
	ctx := log.NewContext(context.Background(), logger)

	log.WithContext(ctx).InfoContext(ctx, "handled")

	assert.Contains(t, buf.String(), `"tool":"list_rules"`)

	assert.Equal(t, slog.Default(), log.WithContext(context.Background()))
}
