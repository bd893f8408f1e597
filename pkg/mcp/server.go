package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulekit/pkg/log"
	"github.com/macropower/rulekit/pkg/resolve"
	"github.com/macropower/rulekit/pkg/version"
)

// Server implements the MCP server for rulekit.
type Server struct {
	source   resolve.Source
	resolver *resolve.Resolver
	server   *mcp.Server
	tracer   trace.Tracer
	address  string
}

// NewServer creates a new MCP server that resolves rules from source.
// Resolver options (e.g. [resolve.WithRoot]) are applied to every
// resolve_rules call.
func NewServer(address string, source resolve.Source, opts ...resolve.Opt) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	s := &Server{
		address:  address,
		source:   source,
		resolver: resolve.New(source, opts...),
		server:   mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		tracer:   otel.Tracer("mcp-server"),
	}

	s.registerTools()

	return s
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_rules",
		Description: "Resolve the project rules that apply to a file. Call this BEFORE editing a file and follow every returned rule.",
	}, WithTracing(s.tracer, s.handleResolveRules))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List every project rule with its activation mode, description, and glob patterns.",
	}, WithTracing(s.tracer, s.handleListRules))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_rule",
		Description: "Get the full content of a single project rule by ID. Use IDs EXACTLY as returned by list_rules or resolve_rules.",
	}, WithTracing(s.tracer, s.handleGetRule))
}

// Server returns the underlying [mcp.Server].
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server. It serves stdio when no address is set,
// otherwise streamable HTTP. Serve returns when ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	log.WithContext(ctx).InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx) //nolint:contextcheck // Parent context is already done.
		if err != nil {
			slog.Error("shut down MCP server", slog.Any("err", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr}

	err := s.server.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
