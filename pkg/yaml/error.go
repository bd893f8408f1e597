package yaml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/printer"
	"github.com/goccy/go-yaml/token"
)

// Error is a YAML decoding or validation error. When the position of the
// error is known, either directly as a [*token.Token] or as a Location within
// Source, the message includes the line, column and an excerpt of the source.
type Error struct {
	Err error
	// Token is the token the error occurred at.
	Token *token.Token
	// Location holds the mapping keys and sequence indexes leading to the
	// value the error occurred at. An empty, non-nil Location is the
	// document root.
	Location []string
	Source   []byte
	// LineOffset is added to reported line numbers, for documents embedded
	// in a larger file (e.g. a rule metadata header).
	LineOffset int
	Color      bool
}

type ErrorOpt func(e *Error)

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{Err: err}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

func WithLocation(location ...string) ErrorOpt {
	return func(e *Error) {
		e.Location = append([]string{}, location...)
	}
}

func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

func WithLineOffset(offset int) ErrorOpt {
	return func(e *Error) {
		e.LineOffset = offset
	}
}

func WithColor(color bool) ErrorOpt {
	return func(e *Error) {
		e.Color = color
	}
}

// Annotate applies opts to the first [*Error] in err's chain. Other errors
// are returned unmodified.
func Annotate(err error, opts ...ErrorOpt) error {
	var yamlErr *Error
	if !errors.As(err, &yamlErr) {
		return err
	}

	for _, opt := range opts {
		opt(yamlErr)
	}

	return err
}

// Position returns the 1-based line and column of the error, if known.
func (e *Error) Position() (int, int, bool) {
	tk := e.token()
	if tk == nil {
		return 0, 0, false
	}

	return tk.Position.Line + e.LineOffset, tk.Position.Column, true
}

func (e *Error) Error() string {
	if e.Err == nil {
		return ""
	}

	tk := e.token()
	if tk == nil {
		if e.Location != nil {
			return fmt.Sprintf("at %s: %v", pointer(e.Location), e.Err)
		}

		return e.Err.Error()
	}

	var pp printer.Printer

	return fmt.Sprintf("[%d:%d] %v\n%s",
		tk.Position.Line+e.LineOffset, tk.Position.Column, e.Err, pp.PrintErrorToken(tk, e.Color))
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) token() *token.Token {
	if e.Token != nil {
		return e.Token
	}
	if e.Location == nil || len(e.Source) == 0 {
		return nil
	}

	return locate(e.Source, e.Location)
}

// pointer formats a location as a JSON pointer.
func pointer(location []string) string {
	var sb strings.Builder
	for _, part := range location {
		sb.WriteString("/")
		sb.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(part))
	}

	if sb.Len() == 0 {
		return "/"
	}

	return sb.String()
}

// locate finds the token for location in source. Mapping values resolve to
// their key, so errors point at the field name.
func locate(source []byte, location []string) *token.Token {
	file, err := parser.ParseBytes(source, 0)
	if err != nil || len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil
	}

	var (
		node = file.Docs[0].Body
		key  *token.Token
	)

	for _, part := range location {
		var next ast.Node

		key = nil

		switch n := node.(type) {
		case *ast.MappingNode:
			for _, mv := range n.Values {
				if mv.Key.GetToken().Value == part {
					key, next = mv.Key.GetToken(), mv.Value

					break
				}
			}

		case *ast.MappingValueNode:
			if n.Key.GetToken().Value == part {
				key, next = n.Key.GetToken(), n.Value
			}

		case *ast.SequenceNode:
			i, err := strconv.Atoi(part)
			if err == nil && i >= 0 && i < len(n.Values) {
				next = n.Values[i]
			}
		}

		if next == nil {
			return nil
		}

		node = next
	}

	if key != nil {
		return key
	}

	return node.GetToken()
}
