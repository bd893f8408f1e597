package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulekit/pkg/yaml"
)

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		want     map[string]any
		wantLine int
	}{
		"mapping": {
			input: "a: b\n",
			want:  map[string]any{"a": "b"},
		},
		"duplicate keys": {
			input: "a: b\na: c\n",
			want:  map[string]any{"a": "c"},
		},
		"unterminated flow sequence": {
			input:    "a: b\nc: [d\n",
			wantLine: 2,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out map[string]any

			err := yaml.Unmarshal([]byte(tc.input), &out)
			if tc.wantLine != 0 {
				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)
				assert.Equal(t, []byte(tc.input), yamlErr.Source)

				line, _, ok := yamlErr.Position()
				require.True(t, ok)
				assert.GreaterOrEqual(t, line, tc.wantLine)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestUnmarshal_LineOffset(t *testing.T) {
	t.Parallel()

	var out map[string]any

	err := yaml.Unmarshal([]byte("a: [b\n"), &out, yaml.WithLineOffset(10))

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)

	line, _, ok := yamlErr.Position()
	require.True(t, ok)
	assert.GreaterOrEqual(t, line, 11)
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	type section struct {
		Dirs []string `json:"dirs"`
	}

	got, err := yaml.Marshal(struct {
		Kind  string  `json:"kind"`
		Rules section `json:"rules"`
	}{
		Kind:  "Configuration",
		Rules: section{Dirs: []string{"a", "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "kind: Configuration\nrules:\n  dirs:\n    - a\n    - b\n", string(got))
}
