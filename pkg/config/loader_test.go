package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulekit/api/v1beta1"
	"github.com/macropower/rulekit/api/v1beta1/configs"
	"github.com/macropower/rulekit/api/v1beta1/projectconfigs"
	"github.com/macropower/rulekit/pkg/config"
)

func TestLoader_LoadFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupFile func(t *testing.T) string
		errMsg    string
	}{
		"valid file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return createTempFile(t, "apiVersion: rulekit.dev/v1beta1\nkind: Configuration\n")
			},
		},
		"non-existent file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return "/non/existent/file.yaml"
			},
			errMsg: "stat file",
		},
		"directory instead of file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			errMsg: "path is a directory",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.NewLoader(configs.New, configs.DefaultValidator).LoadFile(tc.setupFile(t))
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}

func TestLoader_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input  string
		errMsg string
	}{
		"valid config": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  dirs: [".cursor/rules", "docs/rules"]
  extensions: [".mdc", ".md"]
mcp:
  address: localhost:8080
`,
		},
		"invalid yaml": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  dirs: [unclosed
`,
			errMsg: "sequence end token ']' not found",
		},
		"missing required fields": {
			input: `rules:
  dirs: [rules]
`,
			errMsg: "missing properties 'apiVersion', 'kind'",
		},
		"wrong kind": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: ProjectConfig
`,
			errMsg: "[2:1]",
		},
		"unknown field": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
profiles: {}
`,
			errMsg: "additional properties 'profiles' not allowed",
		},
		"wrong type": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  dirs: docs/rules
`,
			errMsg: "[4:3]",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := config.NewLoader(configs.New, configs.DefaultValidator).Validate([]byte(tc.input))
			if tc.errMsg == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		errMsg   string
		wantDirs []string
	}{
		"valid config": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  dirs: [docs/rules]
`,
			wantDirs: []string{"docs/rules"},
		},
		"defaults applied": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
`,
			wantDirs: []string{".cursor/rules"},
		},
		"invalid yaml": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  dirs: [unclosed
`,
			errMsg: "sequence end token ']' not found",
		},
		"schema violation": {
			input:  "rules: {}\n",
			errMsg: "missing properties",
		},
		"invalid extension": {
			input: `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  extensions: [mdc]
`,
			errMsg: "must start with a dot",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.NewLoader(configs.New, configs.DefaultValidator).Load([]byte(tc.input))
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg.Rules)
			assert.Equal(t, tc.wantDirs, cfg.Rules.Dirs)
			assert.NotNil(t, cfg.MCP)
		})
	}
}

type stubValidator struct {
	err error
}

func (v stubValidator) Validate(any) error {
	return v.err
}

func TestLoader_WithValidator(t *testing.T) {
	t.Parallel()

	data := []byte("apiVersion: rulekit.dev/v1beta1\nkind: Configuration\nextra: true\n")

	require.Error(t, config.NewLoader(configs.New, configs.DefaultValidator).Validate(data))

	loader := config.NewLoader(configs.New, configs.DefaultValidator,
		config.WithValidator(stubValidator{err: assert.AnError}),
	)
	require.ErrorIs(t, loader.Validate(data), assert.AnError)

	loader = config.NewLoader(configs.New, configs.DefaultValidator,
		config.WithValidator(nil),
	)
	require.NoError(t, loader.Validate(data))

	cfg, err := loader.Load(data)
	require.NoError(t, err)
	assert.Equal(t, configs.New(), cfg)

	// Documents are still checked after decoding.
	_, err = loader.Load([]byte("apiVersion: rulekit.dev/v1beta1\nkind: ProjectConfig\n"))
	require.ErrorIs(t, err, v1beta1.ErrWrongKind)
}

func TestLoadGlobal(t *testing.T) {
	t.Parallel()

	t.Run("missing file uses defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.LoadGlobal(filepath.Join(t.TempDir(), "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, configs.New(), cfg)
	})

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := createTempFile(t, `apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  legacyFile: ""
`)

		cfg, err := config.LoadGlobal(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Rules.LegacyFile)
		assert.Empty(t, *cfg.Rules.LegacyFile)
	})

	t.Run("invalid extension", func(t *testing.T) {
		t.Parallel()

		_, err := config.LoadGlobalFromBytes([]byte(`apiVersion: rulekit.dev/v1beta1
kind: Configuration
rules:
  extensions: [mdc]
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extension")
	})

	t.Run("default yaml is valid", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.LoadGlobalFromBytes(configs.DefaultYAML())
		require.NoError(t, err)
		assert.Equal(t, configs.New().Rules, cfg.Rules)
	})
}

func TestResolveRules(t *testing.T) {
	t.Parallel()

	t.Run("no project config", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()

		rules, err := config.ResolveRules(configs.New(), root, root)
		require.NoError(t, err)
		assert.Equal(t, root, rules.Root)
		assert.Empty(t, rules.ProjectFile)

		dirs, _ := rules.StoreOpts()
		assert.Equal(t, []string{filepath.Join(root, ".cursor", "rules")}, dirs)
	})

	t.Run("root found from rule directory", func(t *testing.T) {
		t.Parallel()

		cwd := t.TempDir()
		project := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, ".cursor", "rules"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(project, "src", "pkg"), 0o755))

		rules, err := config.ResolveRules(configs.New(), filepath.Join(project, "src", "pkg", "main.py"), cwd)
		require.NoError(t, err)
		assert.Equal(t, project, rules.Root)
		assert.Empty(t, rules.ProjectFile)

		dirs, _ := rules.StoreOpts()
		assert.Equal(t, []string{filepath.Join(project, ".cursor", "rules")}, dirs)
	})

	t.Run("root found from legacy file", func(t *testing.T) {
		t.Parallel()

		cwd := t.TempDir()
		project := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(project, "src"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(project, ".cursorrules"), []byte("Be nice.\n"), 0o600))

		rules, err := config.ResolveRules(configs.New(), filepath.Join(project, "src"), cwd)
		require.NoError(t, err)
		assert.Equal(t, project, rules.Root)
	})

	t.Run("project config overrides global", func(t *testing.T) {
		t.Parallel()

		cwd := t.TempDir()
		project := t.TempDir()
		target := filepath.Join(project, "src", "main.py")
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))

		projectFile := filepath.Join(project, projectconfigs.FileNames[0])
		require.NoError(t, os.WriteFile(projectFile, []byte(`apiVersion: rulekit.dev/v1beta1
kind: ProjectConfig
rules:
  dirs: [rules]
`), 0o600))

		global := configs.New()
		global.Rules.Extensions = []string{".md"}

		rules, err := config.ResolveRules(global, target, cwd)
		require.NoError(t, err)
		assert.Equal(t, project, rules.Root)
		assert.Equal(t, projectFile, rules.ProjectFile)
		assert.Equal(t, []string{".md"}, rules.Config.Extensions)

		dirs, _ := rules.StoreOpts()
		assert.Equal(t, []string{filepath.Join(project, "rules")}, dirs)

		// The global config is not modified.
		assert.Equal(t, []string{".cursor/rules"}, global.Rules.Dirs)
	})

	t.Run("invalid project config", func(t *testing.T) {
		t.Parallel()

		project := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(project, "rulekit.yaml"), []byte(`apiVersion: rulekit.dev/v1beta1
kind: Configuration
`), 0o600))

		_, err := config.ResolveRules(configs.New(), project, project)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rulekit.yaml")
	})
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}
