package rule

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRule is matched by every [*MalformedRuleError].
	ErrMalformedRule = errors.New("malformed rule")
	// ErrDuplicateRule is matched by every [*DuplicateRuleError].
	ErrDuplicateRule = errors.New("duplicate rule")

	errMissingMode   = errors.New("missing mode: set either mode or alwaysApply")
	errMissingHeader = errors.New("missing metadata header")
	errUnterminated  = errors.New("unterminated metadata header")
	errNoPatterns    = errors.New("glob mode requires globs or a match expression")
)

// MalformedRuleError is returned when a rule file's metadata header cannot
// be parsed or is invalid. Loaders skip such files.
type MalformedRuleError struct {
	Err    error
	Source string
}

func (e *MalformedRuleError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %v", ErrMalformedRule, e.Err)
	}

	return fmt.Sprintf("%v %s: %v", ErrMalformedRule, e.Source, e.Err)
}

func (e *MalformedRuleError) Unwrap() []error {
	return []error{ErrMalformedRule, e.Err}
}

func malformed(source string, err error) *MalformedRuleError {
	return &MalformedRuleError{Source: source, Err: err}
}

// DuplicateRuleError is returned when two rule files resolve to the same
// identifier.
type DuplicateRuleError struct {
	ID     string
	First  string
	Second string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("%v %q: defined in %s and %s", ErrDuplicateRule, e.ID, e.First, e.Second)
}

func (e *DuplicateRuleError) Unwrap() error {
	return ErrDuplicateRule
}
