package cli

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

const highlightStyle = "catppuccin-mocha"

// Highlighter renders source with chroma syntax highlighting for the
// terminal's color profile.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewHighlighter creates a [Highlighter] for the named chroma lexer, e.g.
// "markdown" or "yaml".
func NewHighlighter(language string) *Highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatterName := "noop"
	switch termenv.ColorProfile() {
	case termenv.TrueColor:
		formatterName = "terminal16m"

	case termenv.ANSI256:
		formatterName = "terminal256"

	case termenv.ANSI:
		formatterName = "terminal8"

	case termenv.Ascii:
	}

	return &Highlighter{
		lexer:     chroma.Coalesce(lexer),
		formatter: formatters.Get(formatterName),
		style:     styles.Get(highlightStyle),
	}
}

// Render returns content with syntax highlighting applied.
func (h *Highlighter) Render(content string) (string, error) {
	iterator, err := h.lexer.Tokenise(nil, content)
	if err != nil {
		return "", fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = h.formatter.Format(buf, h.style, iterator)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	return buf.String(), nil
}
