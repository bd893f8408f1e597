package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulekit/pkg/log"
)

// WithTracing wraps an [mcp.ToolHandlerFor] with automatic OpenTelemetry
// tracing and structured logging. It creates a span for each tool call, adds
// trace IDs to logs, and records errors on spans.
func WithTracing[In, Out any](
	tracer trace.Tracer,
	handler mcp.ToolHandlerFor[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		req *mcp.CallToolRequest,
		input In,
	) (*mcp.CallToolResult, Out, error) {
		name := "tool"
		if req != nil && req.Params != nil {
			name = req.Params.Name
		}

		// Start a new span for this tool call.
		ctx, span := tracer.Start(ctx, name)
		defer span.End()

		logger := log.WithContext(ctx).With(slog.String("tool", name))
		ctx = log.NewContext(ctx, logger)

		logger.DebugContext(ctx, "handling tool call", slog.Any("args", input))

		result, out, err := handler(ctx, req, input)
		if err != nil {
			logger.ErrorContext(ctx, "tool call failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "tool call failed")
		} else {
			logger.DebugContext(ctx, "tool call completed")
		}

		return result, out, err
	}
}
