package rule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/macropower/rulekit/pkg/expr"
	"github.com/macropower/rulekit/pkg/glob"
)

// Rule is a named unit of assistant guidance with an activation mode.
// Rules are immutable once created.
type Rule struct {
	matcher  *expr.PathProgram
	patterns []glob.Pattern

	// ID identifies the rule. It is derived from the rule's file name.
	ID string `json:"id" jsonschema:"title=ID"`
	// Description tells the assistant when the rule is useful.
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	// Mode is the activation mode.
	Mode Mode `json:"mode" jsonschema:"title=Mode"`
	// Globs are the patterns used by glob mode rules.
	Globs []string `json:"globs,omitempty" jsonschema:"title=Glob Patterns"`
	// Match is an optional CEL expression used by glob mode rules.
	Match string `json:"match,omitempty" jsonschema:"title=Match Expression"`
	// Body is the guidance text.
	Body string `json:"body" jsonschema:"title=Body"`
	// Source is the file the rule was loaded from.
	Source string `json:"source,omitempty" jsonschema:"title=Source"`
}

// Opt configures a [Rule] created with [New].
type Opt func(*Rule)

// WithDescription sets the rule description.
func WithDescription(desc string) Opt {
	return func(r *Rule) {
		r.Description = desc
	}
}

// WithGlobs sets the glob patterns.
func WithGlobs(patterns ...string) Opt {
	return func(r *Rule) {
		r.Globs = append(r.Globs, patterns...)
	}
}

// WithMatch sets the CEL match expression.
func WithMatch(expression string) Opt {
	return func(r *Rule) {
		r.Match = expression
	}
}

// WithBody sets the guidance text.
func WithBody(body string) Opt {
	return func(r *Rule) {
		r.Body = body
	}
}

// WithSource records the file the rule came from.
func WithSource(source string) Opt {
	return func(r *Rule) {
		r.Source = source
	}
}

// New creates a validated [Rule]. Validation failures are returned as
// [*MalformedRuleError].
func New(id string, mode Mode, opts ...Opt) (*Rule, error) {
	r := &Rule{
		ID:   id,
		Mode: mode,
	}
	for _, opt := range opts {
		opt(r)
	}

	err := r.compile()
	if err != nil {
		return nil, malformed(r.Source, fmt.Errorf("rule %q: %w", id, err))
	}

	return r, nil
}

// MustNew creates a new rule and panics if there's an error.
func MustNew(id string, mode Mode, opts ...Opt) *Rule {
	r, err := New(id, mode, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

func (r *Rule) compile() error {
	if r.ID == "" {
		return errors.New("empty id")
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("invalid mode %q", r.Mode)
	}

	if r.Mode != ModeGlob {
		// Patterns carry no meaning outside glob mode.
		r.Globs = nil
		r.Match = ""

		return nil
	}

	if len(r.Globs) == 0 && strings.TrimSpace(r.Match) == "" {
		return errNoPatterns
	}

	r.patterns = make([]glob.Pattern, 0, len(r.Globs))
	for _, g := range r.Globs {
		p, err := glob.Compile(g)
		if err != nil {
			return fmt.Errorf("globs: %w", err)
		}

		r.patterns = append(r.patterns, p)
	}

	if strings.TrimSpace(r.Match) != "" {
		program, err := expr.CompilePath(r.Match)
		if err != nil {
			return fmt.Errorf("match: %w", err)
		}

		r.matcher = program
	}

	return nil
}

// Matches reports whether the rule applies to the given path.
//
// Always mode rules match every path. Glob mode rules match when any of
// their patterns match, or when their match expression evaluates to true.
// Agent-requested and manual rules never match; they are only activated
// when requested explicitly.
func (r *Rule) Matches(path string) bool {
	switch r.Mode {
	case ModeAlways:
		return true

	case ModeGlob:
		normalized := glob.Normalize(path)
		for _, p := range r.patterns {
			if p.Match(normalized) {
				return true
			}
		}

		if r.matcher != nil {
			return r.matcher.Match(normalized)
		}

		return false

	case ModeAgentRequested, ModeManual:
		return false
	}

	return false
}

// Less orders rules by mode rank, then by ID.
func Less(a, b *Rule) bool {
	if a.Mode.Rank() != b.Mode.Rank() {
		return a.Mode.Rank() < b.Mode.Rank()
	}

	return a.ID < b.ID
}

// Compare is the three-way form of [Less], for use with slices.SortFunc.
func Compare(a, b *Rule) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}

	return 0
}

func (r *Rule) String() string {
	switch {
	case r.Mode == ModeGlob && len(r.Globs) > 0:
		return fmt.Sprintf("%s (%s: %s)", r.ID, r.Mode, strings.Join(r.Globs, ", "))
	case r.Mode == ModeGlob:
		return fmt.Sprintf("%s (%s: %s)", r.ID, r.Mode, r.Match)
	}

	return fmt.Sprintf("%s (%s)", r.ID, r.Mode)
}
