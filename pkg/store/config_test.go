package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulekit/pkg/store"
)

func ptr[T any](v T) *T {
	return &v
}

func TestConfig_EnsureDefaults(t *testing.T) {
	t.Parallel()

	c := store.NewConfig()

	assert.Equal(t, []string{store.DefaultDir}, c.Dirs)
	assert.Equal(t, []string{".mdc"}, c.Extensions)
	require.NotNil(t, c.LegacyFile)
	assert.Equal(t, store.DefaultLegacyFile, *c.LegacyFile)
	require.NotNil(t, c.OptionalDirs)
	assert.True(t, *c.OptionalDirs)

	custom := &store.Config{Dirs: []string{"rules"}, LegacyFile: ptr("")}
	custom.EnsureDefaults()

	assert.Equal(t, []string{"rules"}, custom.Dirs)
	assert.Empty(t, *custom.LegacyFile)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cfg     *store.Config
		wantErr bool
	}{
		"defaults": {
			cfg: store.NewConfig(),
		},
		"extension without dot": {
			cfg:     &store.Config{Extensions: []string{"mdc"}},
			wantErr: true,
		},
		"bare dot extension": {
			cfg:     &store.Config{Extensions: []string{"."}},
			wantErr: true,
		},
		"blank directory": {
			cfg:     &store.Config{Dirs: []string{" "}},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, store.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	t.Parallel()

	c := store.NewConfig()
	c.Merge(&store.Config{
		Dirs:         []string{"docs/rules"},
		OptionalDirs: ptr(false),
	})

	assert.Equal(t, []string{"docs/rules"}, c.Dirs)
	assert.Equal(t, []string{".mdc"}, c.Extensions)
	assert.Equal(t, store.DefaultLegacyFile, *c.LegacyFile)
	assert.False(t, *c.OptionalDirs)

	c.Merge(nil)
	assert.Equal(t, []string{"docs/rules"}, c.Dirs)
}

func TestConfig_LoadFromRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".cursorrules":              "Legacy.\n",
		".cursor/rules/general.mdc": alwaysRule,
	})

	c := store.NewConfig()
	c.Dirs = append(c.Dirs, "missing")

	dirs := c.ResolveDirs(root)
	assert.Equal(t, []string{
		filepath.Join(root, ".cursor", "rules"),
		filepath.Join(root, "missing"),
	}, dirs)

	s, err := store.Load(t.Context(), dirs, c.Opts(root)...)
	require.NoError(t, err)
	assert.Equal(t, []string{"cursorrules", "general"}, ruleIDs(s.Rules()))

	c.LegacyFile = ptr("")

	s, err = store.Load(t.Context(), c.ResolveDirs(root), c.Opts(root)...)
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, ruleIDs(s.Rules()))
}
