// Package resolve decides which rules apply to a file path.
package resolve

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulekit/pkg/log"
	"github.com/macropower/rulekit/pkg/rule"
	"github.com/macropower/rulekit/pkg/store"
)

// Source provides the current rule snapshot. Both [*store.Store] and
// [*store.Watcher] implement Source.
type Source interface {
	Current() *store.Store
}

// Result is the set of rules applicable to a path.
type Result struct {
	// Path is the path rules were resolved for, relative to the resolver's
	// root when it was under it.
	Path string `json:"path" yaml:"path"`
	// Rules are the activated rules: always mode first, then glob mode, then
	// explicitly requested rules. Ties are broken by ID.
	Rules []*rule.Rule `json:"rules" yaml:"rules"`
	// Available are agent-requested and manual rules that were not
	// activated, sorted by ID.
	Available []*rule.Rule `json:"available" yaml:"available"`
	// Unknown are requested IDs that do not exist in the store.
	Unknown []string `json:"unknown,omitempty" yaml:"unknown,omitempty"`
	// Suggestions maps unknown IDs to similar existing IDs.
	Suggestions map[string][]string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// IDs returns the IDs of the activated rules, in order.
func (r Result) IDs() []string {
	ids := make([]string, 0, len(r.Rules))
	for _, rl := range r.Rules {
		ids = append(ids, rl.ID)
	}

	return ids
}

// Opt configures a [Resolver].
type Opt func(*Resolver)

// WithRoot sets the directory absolute paths are made relative to before
// matching. Glob patterns are written relative to the project root, so this
// is usually the directory containing the rule directories.
func WithRoot(root string) Opt {
	return func(r *Resolver) {
		r.root = root
	}
}

// ResolveOpt configures a single call to [Resolver.Resolve].
type ResolveOpt func(*request)

type request struct {
	requested []string
}

// WithRequested activates the given rule IDs in addition to the rules that
// match automatically. This is how agent-requested and manual rules are
// applied.
func WithRequested(ids ...string) ResolveOpt {
	return func(req *request) {
		req.requested = append(req.requested, ids...)
	}
}

// Resolver computes [Result]s from a [Source].
type Resolver struct {
	source Source
	tracer trace.Tracer
	root   string
}

// New creates a new [Resolver].
func New(source Source, opts ...Opt) *Resolver {
	r := &Resolver{
		source: source,
		tracer: otel.Tracer("rule-resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.root != "" {
		if abs, err := filepath.Abs(r.root); err == nil {
			r.root = abs
		}
	}

	return r
}

// Resolve returns the rules that apply to path. It has no side effects and
// always reads the latest snapshot from the [Source].
func (r *Resolver) Resolve(path string, opts ...ResolveOpt) Result {
	return r.ResolveContext(context.Background(), path, opts...)
}

// ResolveContext is like [Resolver.Resolve] but records a trace span.
func (r *Resolver) ResolveContext(ctx context.Context, path string, opts ...ResolveOpt) Result {
	ctx, span := r.tracer.Start(ctx, "resolve")
	defer span.End()

	req := &request{}
	for _, opt := range opts {
		opt(req)
	}

	s := r.source.Current()
	res := Result{
		Path:      r.relative(path),
		Rules:     []*rule.Rule{},
		Available: []*rule.Rule{},
	}

	activated := make(map[string]bool)

	for _, rl := range s.Rules() {
		if rl.Matches(res.Path) {
			res.Rules = append(res.Rules, rl)
			activated[rl.ID] = true
		}
	}

	for _, id := range req.requested {
		if activated[id] {
			continue
		}

		rl, ok := s.Get(id)
		if !ok {
			if !slices.Contains(res.Unknown, id) {
				res.Unknown = append(res.Unknown, id)

				if suggestions := s.Suggest(id); len(suggestions) > 0 {
					if res.Suggestions == nil {
						res.Suggestions = make(map[string][]string)
					}

					res.Suggestions[id] = suggestions
				}
			}

			continue
		}

		res.Rules = append(res.Rules, rl)
		activated[id] = true
	}

	slices.SortStableFunc(res.Rules, rule.Compare)

	for _, rl := range s.Rules() {
		if activated[rl.ID] || rl.Mode.AutoActivated() {
			continue
		}

		res.Available = append(res.Available, rl)
	}

	span.SetAttributes(
		attribute.String("path", res.Path),
		attribute.Int("rules", len(res.Rules)),
		attribute.Int("available", len(res.Available)),
	)

	log.WithContext(ctx).DebugContext(ctx, "resolved rules",
		slog.String("path", res.Path),
		slog.Any("rules", res.IDs()),
		slog.Any("unknown", res.Unknown),
	)

	return res
}

// relative makes absolute paths under the root relative to it. Other paths
// are returned normalized but otherwise unchanged.
func (r *Resolver) relative(path string) string {
	if r.root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}

	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(path))
	}

	return filepath.ToSlash(rel)
}
