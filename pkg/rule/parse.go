package rule

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/macropower/rulekit/pkg/glob"
	"github.com/macropower/rulekit/pkg/yaml"
)

const headerDelimiter = "---"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Globs holds glob patterns from a metadata header. It accepts either a YAML
// list or a comma-separated string.
type Globs []string

func (g *Globs) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string

	err := unmarshal(&list)
	if err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, glob.Split(item)...)
		}

		*g = out

		return nil
	}

	var s string

	err = unmarshal(&s)
	if err != nil {
		return fmt.Errorf("globs must be a string or a list of strings: %w", err)
	}

	*g = glob.Split(s)

	return nil
}

// header is the metadata block at the top of a rule file.
type header struct {
	AlwaysApply *bool   `yaml:"alwaysApply"`
	Mode        *string `yaml:"mode"`
	Description string  `yaml:"description"`
	Match       string  `yaml:"match"`
	Globs       Globs   `yaml:"globs"`
}

// mode determines the activation mode described by the header.
func (h header) mode() (Mode, error) {
	if h.Mode != nil {
		return ParseMode(*h.Mode)
	}

	if h.AlwaysApply == nil {
		return "", errMissingMode
	}

	switch {
	case *h.AlwaysApply:
		return ModeAlways, nil
	case len(h.Globs) > 0 || strings.TrimSpace(h.Match) != "":
		return ModeGlob, nil
	case strings.TrimSpace(h.Description) != "":
		return ModeAgentRequested, nil
	}

	return ModeManual, nil
}

// Parse parses a rule file. The id is usually derived with [IDFromPath].
// Any problem with the metadata header is returned as a
// [*MalformedRuleError].
func Parse(id, source string, content []byte) (*Rule, error) {
	rawHeader, body, err := splitHeader(content)
	if err != nil {
		return nil, malformed(source, err)
	}

	h, err := decodeHeader(rawHeader)
	if err != nil {
		return nil, malformed(source, err)
	}

	mode, err := h.mode()
	if err != nil {
		return nil, malformed(source, err)
	}

	return New(id, mode,
		WithDescription(strings.TrimSpace(h.Description)),
		WithGlobs(h.Globs...),
		WithMatch(strings.TrimSpace(h.Match)),
		WithBody(body),
		WithSource(source),
	)
}

// ParseLegacy parses a legacy single-file rule (e.g. ".cursorrules"). The
// whole file is the body of an always mode rule.
func ParseLegacy(id, source string, content []byte) (*Rule, error) {
	body := strings.TrimSpace(string(normalizeNewlines(content)))
	if body == "" {
		return nil, malformed(source, errors.New("empty rule file"))
	}

	return New(id, ModeAlways,
		WithDescription("Legacy project rules"),
		WithBody(body),
		WithSource(source),
	)
}

// IDFromPath derives a rule ID from a file path relative to the directory
// the rule was loaded from. The extension is removed and separators are
// converted to slashes, so "dir/frontend/react.mdc" becomes "frontend/react".
func IDFromPath(dir, file string) (string, error) {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is not inside %s", file, dir)
	}

	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	return filepath.ToSlash(rel), nil
}

func normalizeNewlines(content []byte) []byte {
	content = bytes.TrimPrefix(content, utf8BOM)

	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}

// splitHeader separates the metadata header from the body.
func splitHeader(content []byte) ([]byte, string, error) {
	content = normalizeNewlines(content)

	first, rest, found := bytes.Cut(content, []byte("\n"))
	if strings.TrimSpace(string(first)) != headerDelimiter {
		return nil, "", errMissingHeader
	}
	if !found {
		return nil, "", errUnterminated
	}

	var (
		hdr    bytes.Buffer
		remain = rest
	)

	for {
		line, next, more := bytes.Cut(remain, []byte("\n"))
		if strings.TrimSpace(string(line)) == headerDelimiter {
			return hdr.Bytes(), strings.TrimSpace(string(next)), nil
		}
		if !more {
			return nil, "", errUnterminated
		}

		hdr.Write(line)
		hdr.WriteByte('\n')

		remain = next
	}
}

// decodeHeader decodes the YAML header. Headers written for editors are
// often not strictly valid YAML (e.g. `globs: **/*.py` is an alias in
// YAML), so a line-based fallback is tried before giving up.
func decodeHeader(raw []byte) (header, error) {
	var h header

	// The header starts on the second line of the file.
	err := yaml.Unmarshal(raw, &h, yaml.WithLineOffset(1))
	if err == nil {
		return h, nil
	}

	lenient, lerr := decodeHeaderLenient(raw)
	if lerr == nil {
		return lenient, nil
	}

	return header{}, fmt.Errorf("decode metadata header: %w", err)
}

func decodeHeaderLenient(raw []byte) (header, error) {
	var (
		h       header
		lastKey string
	)

	for i, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			item, ok := strings.CutPrefix(trimmed, "- ")
			if !ok || lastKey != "globs" {
				return header{}, fmt.Errorf("line %d: unexpected indentation", i+2)
			}

			h.Globs = append(h.Globs, splitLenient(stripComment(item))...)

			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return header{}, fmt.Errorf("line %d: expected key: value", i+2)
		}

		key = strings.TrimSpace(key)
		value = unquote(stripComment(value))
		lastKey = key

		switch key {
		case "description":
			h.Description = value
		case "globs":
			h.Globs = append(h.Globs, splitLenient(strings.Trim(value, "[]"))...)
		case "match":
			h.Match = value
		case "mode":
			h.Mode = &value
		case "alwaysApply":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return header{}, fmt.Errorf("line %d: alwaysApply: %w", i+2, err)
			}

			h.AlwaysApply = &b
		}
	}

	return h, nil
}

func splitLenient(s string) []string {
	parts := glob.Split(s)
	for i, p := range parts {
		parts[i] = unquote(p)
	}

	return parts
}

// stripComment removes a trailing YAML comment: a '#' at the start of s or
// after whitespace, outside of quotes. The result is trimmed.
func stripComment(s string) string {
	var quote byte

	for i := range len(s) {
		c := s[i]

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#' && (i == 0 || s[i-1] == ' ' || s[i-1] == '\t'):
			return strings.TrimSpace(s[:i])
		}
	}

	return strings.TrimSpace(s)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}
