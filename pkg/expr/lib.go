package expr

import (
	"path"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/macropower/rulekit/pkg/glob"
)

// lib declares the path functions available to expressions. Paths are
// slash-separated and relative to the project root.
type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Strings(),
		ext.Lists(),

		// Example: glob(path, "src/**/*.{ts,tsx}").
		cel.Function("glob",
			cel.Overload("glob_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(p, pattern ref.Val) ref.Val {
					ps, ok := p.Value().(string)
					if !ok {
						return types.NewErr("glob: invalid path value")
					}

					pat, ok := pattern.Value().(string)
					if !ok {
						return types.NewErr("glob: invalid pattern value")
					}

					compiled, err := compileGlob(pat)
					if err != nil {
						return types.NewErr("glob: %v", err)
					}

					return types.Bool(compiled.Match(ps))
				}),
			),
		),

		// Example: pathBase(path) in ["conftest.py", "pytest.ini"].
		stringFunction("pathBase", path.Base),

		// Example: pathDir(path).startsWith("charts/").
		stringFunction("pathDir", path.Dir),

		// Example: pathExt(path) in [".yaml", ".yml"].
		stringFunction("pathExt", path.Ext),

		// Example: pathStem(path).endsWith("_test").
		stringFunction("pathStem", func(p string) string {
			base := path.Base(p)

			return strings.TrimSuffix(base, path.Ext(base))
		}),

		// Example: "migrations" in pathSegments(path).
		cel.Function("pathSegments",
			cel.Overload("path_segments_string", []*cel.Type{cel.StringType}, cel.ListType(cel.StringType),
				cel.UnaryBinding(func(p ref.Val) ref.Val {
					ps, ok := p.Value().(string)
					if !ok {
						return types.NewErr("pathSegments: invalid path value")
					}

					segments := strings.FieldsFunc(ps, func(r rune) bool { return r == '/' })

					return types.NewStringList(types.DefaultTypeAdapter, segments)
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return nil
}

// stringFunction declares a function name(string) string.
func stringFunction(name string, fn func(string) string) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_string", []*cel.Type{cel.StringType}, cel.StringType,
			cel.UnaryBinding(func(v ref.Val) ref.Val {
				s, ok := v.Value().(string)
				if !ok {
					return types.NewErr("%s: invalid string value", name)
				}

				return types.String(fn(s))
			}),
		),
	)
}

// Patterns in expressions are usually constant, so compiled patterns are
// kept for the life of the process.
var globCache sync.Map

func compileGlob(pattern string) (glob.Pattern, error) {
	if p, ok := globCache.Load(pattern); ok {
		return p.(glob.Pattern), nil //nolint:forcetypeassert // Only patterns are stored.
	}

	p, err := glob.Compile(pattern)
	if err != nil {
		return glob.Pattern{}, err //nolint:wrapcheck // Already descriptive.
	}

	globCache.Store(pattern, p)

	return p, nil
}
