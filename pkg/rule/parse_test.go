package rule_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulekit/pkg/rule"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content   string
		wantMode  rule.Mode
		wantGlobs []string
		wantDesc  string
		wantBody  string
	}{
		"always apply": {
			content: `---
description: General conventions
globs:
alwaysApply: true
---
Be concise.
`,
			wantMode: rule.ModeAlways,
			wantDesc: "General conventions",
			wantBody: "Be concise.",
		},
		"always apply drops globs": {
			content: `---
globs: "**/*.py"
alwaysApply: true
---
body`,
			wantMode: rule.ModeAlways,
			wantBody: "body",
		},
		"glob string": {
			content: `---
description: Playwright tests
globs: "tests/**/*.spec.ts, e2e/**"
alwaysApply: false
---
Use page objects.`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"tests/**/*.spec.ts", "e2e/**"},
			wantDesc:  "Playwright tests",
			wantBody:  "Use page objects.",
		},
		"glob list": {
			content: `---
globs:
  - "**/*.py"
  - "**/*.pyi"
alwaysApply: false
---
`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"**/*.py", "**/*.pyi"},
		},
		"unquoted glob falls back to lenient parsing": {
			content: `---
description: Python
globs: **/*.py
alwaysApply: false
---
Use pytest.`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"**/*.py"},
			wantDesc:  "Python",
			wantBody:  "Use pytest.",
		},
		"lenient list": {
			content: `---
globs: [**/*.ts, "**/*.tsx"]
alwaysApply: false
---
x`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"**/*.ts", "**/*.tsx"},
			wantBody:  "x",
		},
		"lenient trailing comments": {
			content: `---
description: C# conventions # for dotnet
globs: **/*.cs # sources only
alwaysApply: false # attach by glob
---
x`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"**/*.cs"},
			wantDesc:  "C# conventions",
			wantBody:  "x",
		},
		"lenient list comments": {
			content: `---
globs:
  - **/*.py # sources
  - "tests/#fixtures/**" # quoted hash is kept
alwaysApply: false
---
x`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"**/*.py", "tests/#fixtures/**"},
			wantBody:  "x",
		},
		"agent requested": {
			content: `---
description: Use when writing Cypress component tests
alwaysApply: false
---
body`,
			wantMode: rule.ModeAgentRequested,
			wantDesc: "Use when writing Cypress component tests",
			wantBody: "body",
		},
		"manual": {
			content: `---
description:
globs:
alwaysApply: false
---
body`,
			wantMode: rule.ModeManual,
			wantBody: "body",
		},
		"explicit mode": {
			content: `---
mode: manual
description: Only on request
---
body`,
			wantMode: rule.ModeManual,
			wantDesc: "Only on request",
			wantBody: "body",
		},
		"explicit mode alias": {
			content: `---
mode: Auto-Attached
globs: "*.go"
---
body`,
			wantMode:  rule.ModeGlob,
			wantGlobs: []string{"*.go"},
			wantBody:  "body",
		},
		"match expression": {
			content: `---
mode: glob
match: pathBase(path).startsWith("test_")
---
body`,
			wantMode: rule.ModeGlob,
			wantBody: "body",
		},
		"crlf and bom": {
			content:  "\xEF\xBB\xBF---\r\nalwaysApply: true\r\n---\r\nline one\r\nline two\r\n",
			wantMode: rule.ModeAlways,
			wantBody: "line one\nline two",
		},
		"unknown keys ignored": {
			content: `---
alwaysApply: true
author: someone
---
body`,
			wantMode: rule.ModeAlways,
			wantBody: "body",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := rule.Parse("test", "test.mdc", []byte(tc.content))
			require.NoError(t, err)

			assert.Equal(t, "test", r.ID)
			assert.Equal(t, "test.mdc", r.Source)
			assert.Equal(t, tc.wantMode, r.Mode)
			assert.Equal(t, tc.wantGlobs, []string(r.Globs))
			assert.Equal(t, tc.wantDesc, r.Description)
			assert.Equal(t, tc.wantBody, r.Body)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content string
		errMsg  string
	}{
		"missing mode": {
			content: "---\ndescription: no mode here\nglobs: \"**/*.py\"\n---\nbody",
			errMsg:  "missing mode",
		},
		"empty header": {
			content: "---\n---\nbody",
			errMsg:  "missing mode",
		},
		"invalid mode": {
			content: "---\nmode: sometimes\n---\nbody",
			errMsg:  `invalid mode "sometimes"`,
		},
		"glob mode without patterns": {
			content: "---\nmode: glob\n---\nbody",
			errMsg:  "requires globs",
		},
		"invalid glob": {
			content: "---\nmode: glob\nglobs: \"src/[abc\"\n---\nbody",
			errMsg:  "invalid glob pattern",
		},
		"invalid match": {
			content: "---\nmode: glob\nmatch: nope(\n---\nbody",
			errMsg:  "match",
		},
		"missing header": {
			content: "# Just markdown\n",
			errMsg:  "missing metadata header",
		},
		"unterminated header": {
			content: "---\nalwaysApply: true\nbody",
			errMsg:  "unterminated",
		},
		"undecodable header": {
			content: "---\nalwaysApply: [true\n  nested: {\n---\nbody",
			errMsg:  "decode metadata header",
		},
		"bad alwaysApply": {
			content: "---\nalwaysApply: perhaps\n---\nbody",
			errMsg:  "alwaysApply",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := rule.Parse("test", "rules/test.mdc", []byte(tc.content))
			require.Error(t, err)
			assert.Nil(t, r)

			require.ErrorIs(t, err, rule.ErrMalformedRule)

			var mErr *rule.MalformedRuleError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, "rules/test.mdc", mErr.Source)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestParseLegacy(t *testing.T) {
	t.Parallel()

	r, err := rule.ParseLegacy("cursorrules", "/repo/.cursorrules", []byte("\nYou are a Selenium expert.\r\n"))
	require.NoError(t, err)

	assert.Equal(t, rule.ModeAlways, r.Mode)
	assert.Equal(t, "You are a Selenium expert.", r.Body)
	assert.True(t, r.Matches("anything/at/all.java"))

	_, err = rule.ParseLegacy("cursorrules", "/repo/.cursorrules", []byte(" \n\t"))
	require.ErrorIs(t, err, rule.ErrMalformedRule)
}

func TestIDFromPath(t *testing.T) {
	t.Parallel()

	dir := filepath.Join("repo", ".cursor", "rules")

	tcs := map[string]struct {
		file    string
		want    string
		wantErr bool
	}{
		"top level": {
			file: filepath.Join(dir, "python.mdc"),
			want: "python",
		},
		"nested": {
			file: filepath.Join(dir, "frontend", "react.mdc"),
			want: "frontend/react",
		},
		"multiple dots": {
			file: filepath.Join(dir, "playwright.e2e.mdc"),
			want: "playwright.e2e",
		},
		"outside directory": {
			file:    filepath.Join("repo", "other.mdc"),
			wantErr: true,
		},
		"the directory itself": {
			file:    dir,
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := rule.IDFromPath(dir, tc.file)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDuplicateRuleError(t *testing.T) {
	t.Parallel()

	var err error = &rule.DuplicateRuleError{
		ID:     "python",
		First:  "a/python.mdc",
		Second: "b/python.mdc",
	}

	require.ErrorIs(t, err, rule.ErrDuplicateRule)
	assert.False(t, errors.Is(err, rule.ErrMalformedRule))
	assert.Equal(t, `duplicate rule "python": defined in a/python.mdc and b/python.mdc`, err.Error())
}
