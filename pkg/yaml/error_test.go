package yaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulekit/pkg/yaml"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	src := []byte("kind: Configuration\nrules:\n  dirs: nope\n")

	tcs := map[string]struct {
		err      *yaml.Error
		contains []string
	}{
		"plain": {
			err:      yaml.NewError(errors.New("boom")),
			contains: []string{"boom"},
		},
		"nil error": {
			err: yaml.NewError(nil),
		},
		"location without source": {
			err:      yaml.NewError(errors.New("boom"), yaml.WithLocation("rules", "dirs")),
			contains: []string{"at /rules/dirs: boom"},
		},
		"root location": {
			err:      yaml.NewError(errors.New("boom"), yaml.WithLocation()),
			contains: []string{"at /: boom"},
		},
		"location with source": {
			err: yaml.NewError(errors.New("boom"),
				yaml.WithLocation("rules", "dirs"),
				yaml.WithSource(src),
			),
			contains: []string{"[3:3] boom", "dirs: nope"},
		},
		"missing location": {
			err: yaml.NewError(errors.New("boom"),
				yaml.WithLocation("rules", "extensions"),
				yaml.WithSource(src),
			),
			contains: []string{"at /rules/extensions: boom"},
		},
		"line offset": {
			err: yaml.NewError(errors.New("boom"),
				yaml.WithLocation("rules", "dirs"),
				yaml.WithLineOffset(1),
				yaml.WithSource(src),
			),
			contains: []string{"[4:3] boom"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			msg := tc.err.Error()
			if len(tc.contains) == 0 {
				assert.Empty(t, msg)
			}

			for _, want := range tc.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	require.NoError(t, yaml.Annotate(nil, yaml.WithColor(true)))

	plain := errors.New("plain")
	require.Same(t, plain, yaml.Annotate(plain, yaml.WithSource([]byte("a: b\n"))))

	inner := errors.New("inner")
	annotated := yaml.Annotate(yaml.NewError(inner), yaml.WithSource([]byte("a: b\n")))

	var yamlErr *yaml.Error
	require.ErrorAs(t, annotated, &yamlErr)
	assert.Equal(t, []byte("a: b\n"), yamlErr.Source)
	require.ErrorIs(t, annotated, inner)
}
