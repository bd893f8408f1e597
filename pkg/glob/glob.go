// Package glob matches file paths against shell-style glob patterns.
//
// Patterns support the usual `*`, `?`, `[...]` and `{a,b}` wildcards, plus
// `**` to match zero or more directories. Paths are always compared using
// forward slashes, regardless of the host OS.
package glob

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPattern indicates that a glob pattern could not be parsed.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// Pattern is a validated glob pattern.
type Pattern struct {
	raw string
}

// Compile validates a glob pattern and returns a [Pattern].
func Compile(pattern string) (Pattern, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return Pattern{}, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	if !doublestar.ValidatePattern(p) {
		return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	return Pattern{raw: p}, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return p
}

// Match reports whether the path matches the pattern.
func (p Pattern) Match(filePath string) bool {
	if p.raw == "" {
		return false
	}

	ok, err := doublestar.Match(p.raw, Normalize(filePath))
	if err != nil {
		// Patterns are validated in Compile.
		return false
	}

	return ok
}

func (p Pattern) String() string {
	return p.raw
}

// Match compiles the pattern and matches it against the path in one step.
// Invalid patterns never match.
func Match(pattern, filePath string) bool {
	p, err := Compile(pattern)
	if err != nil {
		return false
	}

	return p.Match(filePath)
}

// Normalize converts a path into the slash-separated, cleaned form used for
// matching. A leading "./" is removed.
func Normalize(filePath string) string {
	if filePath == "" {
		return ""
	}

	p := path.Clean(filepath.ToSlash(filePath))

	return strings.TrimPrefix(p, "./")
}

// Split parses a list of patterns separated by commas, as found in rule
// metadata headers (e.g. "**/*.ts, **/*.tsx"). Braces are respected, so
// "*.{ts,tsx}" is kept as one pattern.
func Split(s string) []string {
	var (
		out   []string
		depth int
		start int
	)

	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}

				start = i + 1
			}
		}
	}

	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}

	return out
}
