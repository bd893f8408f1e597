package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sahilm/fuzzy"

	"github.com/macropower/rulekit/pkg/log"
	"github.com/macropower/rulekit/pkg/rule"
)

const (
	// LegacyRuleID is the ID given to a legacy single-file rule.
	LegacyRuleID = "cursorrules"
)

// MaxSuggestions is the number of IDs returned by [Store.Suggest].
const MaxSuggestions = 3

// DefaultExtensions are the rule file extensions loaded when none are set.
var DefaultExtensions = []string{".mdc"}

// Opt configures how a [Store] is loaded.
type Opt func(*options)

type options struct {
	extensions   []string
	legacyFiles  []string
	optionalDirs bool
}

func newOptions(opts ...Opt) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.extensions) == 0 {
		o.extensions = DefaultExtensions
	}

	return o
}

// WithExtensions sets the file extensions treated as rule files.
// Extensions must include the leading dot.
func WithExtensions(exts ...string) Opt {
	return func(o *options) {
		o.extensions = append(o.extensions, exts...)
	}
}

// WithLegacyFile loads a single headerless file (e.g. ".cursorrules") as an
// always mode rule with ID [LegacyRuleID]. A missing legacy file is ignored.
func WithLegacyFile(path string) Opt {
	return func(o *options) {
		if path != "" {
			o.legacyFiles = append(o.legacyFiles, path)
		}
	}
}

// WithOptionalDirs skips rule directories that do not exist instead of
// failing the load.
func WithOptionalDirs(optional bool) Opt {
	return func(o *options) {
		o.optionalDirs = optional
	}
}

// Store is an immutable set of rules.
type Store struct {
	rules   map[string]*rule.Rule
	sorted  []*rule.Rule
	skipped []*rule.MalformedRuleError
	dirs    []string
}

// New creates a [Store] from rules that were already parsed.
func New(rules ...*rule.Rule) (*Store, error) {
	s := &Store{
		rules: make(map[string]*rule.Rule, len(rules)),
	}

	for _, r := range rules {
		err := s.add(r)
		if err != nil {
			return nil, err
		}
	}

	s.seal()

	return s, nil
}

// MustNew is like [New] but panics on error.
func MustNew(rules ...*rule.Rule) *Store {
	s, err := New(rules...)
	if err != nil {
		panic(err)
	}

	return s
}

// Load reads every rule file below the given directories.
//
// Files with a malformed metadata header are skipped and logged. A duplicate
// rule ID fails the load with a [*rule.DuplicateRuleError]. A missing
// directory fails the load unless [WithOptionalDirs] is set.
func Load(ctx context.Context, dirs []string, opts ...Opt) (*Store, error) {
	ctx, span := otel.Tracer("rule-store").Start(ctx, "load")
	defer span.End()

	o := newOptions(opts...)
	logger := log.WithContext(ctx)

	s := &Store{
		rules: make(map[string]*rule.Rule),
	}

	for _, dir := range dirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve rule directory %q: %w", dir, err)
		}

		info, err := os.Stat(absDir)
		if errors.Is(err, fs.ErrNotExist) && o.optionalDirs {
			logger.DebugContext(ctx, "skip missing rule directory", slog.String("path", absDir))

			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stat rule directory")

			return nil, fmt.Errorf("rule directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("rule directory %s: not a directory", absDir)
		}

		err = s.loadDir(ctx, absDir, o)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load rule directory")

			return nil, err
		}

		s.dirs = append(s.dirs, absDir)
	}

	for _, legacyPath := range o.legacyFiles {
		err := s.loadLegacy(ctx, legacyPath)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load legacy rule")

			return nil, err
		}
	}

	s.seal()

	span.SetAttributes(
		attribute.Int("rules", len(s.sorted)),
		attribute.Int("skipped", len(s.skipped)),
	)

	logger.DebugContext(ctx, "loaded rules",
		slog.Any("dirs", s.dirs),
		slog.Int("count", len(s.sorted)),
		slog.Int("skipped", len(s.skipped)),
	)

	return s, nil
}

func (s *Store) loadDir(ctx context.Context, dir string, o *options) error {
	logger := log.WithContext(ctx)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path, o.extensions) {
			return nil
		}

		id, err := rule.IDFromPath(dir, path)
		if err != nil {
			return err //nolint:wrapcheck // Wrapped below.
		}

		content, err := os.ReadFile(path) //nolint:gosec // G304: Rule files come from configured directories.
		if err != nil {
			return fmt.Errorf("read rule file: %w", err)
		}

		r, err := rule.Parse(id, path, content)
		if err != nil {
			var mErr *rule.MalformedRuleError
			if errors.As(err, &mErr) {
				logger.WarnContext(ctx, "skip malformed rule",
					slog.String("path", path),
					slog.Any("err", mErr.Err),
				)

				s.skipped = append(s.skipped, mErr)

				return nil
			}

			return fmt.Errorf("parse rule file: %w", err)
		}

		return s.add(r)
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}

	return nil
}

func (s *Store) loadLegacy(ctx context.Context, path string) error {
	logger := log.WithContext(ctx)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve legacy rule file %q: %w", path, err)
	}

	content, err := os.ReadFile(absPath) //nolint:gosec // G304: Path comes from configuration.
	if errors.Is(err, fs.ErrNotExist) {
		logger.DebugContext(ctx, "no legacy rule file", slog.String("path", absPath))

		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy rule file: %w", err)
	}

	r, err := rule.ParseLegacy(LegacyRuleID, absPath, content)
	if err != nil {
		var mErr *rule.MalformedRuleError
		if errors.As(err, &mErr) {
			logger.WarnContext(ctx, "skip malformed legacy rule",
				slog.String("path", absPath),
				slog.Any("err", mErr.Err),
			)

			s.skipped = append(s.skipped, mErr)

			return nil
		}

		return fmt.Errorf("parse legacy rule file: %w", err)
	}

	return s.add(r)
}

func (s *Store) add(r *rule.Rule) error {
	if existing, ok := s.rules[r.ID]; ok {
		return &rule.DuplicateRuleError{
			ID:     r.ID,
			First:  existing.Source,
			Second: r.Source,
		}
	}

	s.rules[r.ID] = r

	return nil
}

// seal builds the sorted view. The store must not be modified afterwards.
func (s *Store) seal() {
	s.sorted = make([]*rule.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		s.sorted = append(s.sorted, r)
	}

	slices.SortFunc(s.sorted, func(a, b *rule.Rule) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// Current returns the store itself, so a [*Store] can be used anywhere a
// snapshot source is expected.
func (s *Store) Current() *Store {
	return s
}

// Rules returns all rules sorted by ID. The returned slice may be modified
// by the caller; the rules may not.
func (s *Store) Rules() []*rule.Rule {
	return slices.Clone(s.sorted)
}

// Get returns the rule with the given ID.
func (s *Store) Get(id string) (*rule.Rule, bool) {
	r, ok := s.rules[id]

	return r, ok
}

// Len returns the number of loaded rules.
func (s *Store) Len() int {
	return len(s.sorted)
}

// Dirs returns the absolute directories rules were loaded from.
func (s *Store) Dirs() []string {
	return slices.Clone(s.dirs)
}

// Suggest returns the IDs of up to [MaxSuggestions] rules that fuzzily
// match id, best match first. It returns nil when nothing matches.
func (s *Store) Suggest(id string) []string {
	ids := make([]string, 0, len(s.sorted))
	for _, r := range s.sorted {
		ids = append(ids, r.ID)
	}

	matches := fuzzy.Find(id, ids)
	if len(matches) == 0 {
		return nil
	}

	matches = matches[:min(len(matches), MaxSuggestions)]

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}

	return out
}

// Skipped returns the malformed rule files skipped during load.
func (s *Store) Skipped() []*rule.MalformedRuleError {
	return slices.Clone(s.skipped)
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}

	return false
}
