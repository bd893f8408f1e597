package expr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Environment compiles CEL expressions that evaluate to a bool. It is safe
// for concurrent use.
type Environment struct {
	env *cel.Env
	mu  sync.Mutex
}

// NewEnvironment creates a new [Environment] with the functions of this
// package and the given options.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := cel.NewEnv(append(opts, cel.Lib(lib{}))...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// NewPathEnvironment creates an [Environment] declaring the `path` variable
// used by rule match expressions.
func NewPathEnvironment() (*Environment, error) {
	return NewEnvironment(cel.Variable("path", cel.StringType))
}

// Compile compiles a CEL expression. The expression must evaluate to a bool
// (or dyn).
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile expression: must return bool, got %s", out)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// EvalBool evaluates a program with the given variables. Evaluation errors
// and non-bool results are reported as false.
func EvalBool(program cel.Program, vars map[string]any) bool {
	result, _, err := program.Eval(vars)
	if err != nil {
		return false
	}

	b, ok := result.Value().(bool)

	return ok && b
}

var pathEnv = sync.OnceValues(NewPathEnvironment)

// PathProgram is a compiled expression over the `path` variable.
type PathProgram struct {
	program    cel.Program
	expression string
}

// CompilePath compiles an expression using a shared path [Environment].
func CompilePath(expression string) (*PathProgram, error) {
	env, err := pathEnv()
	if err != nil {
		return nil, err
	}

	program, err := env.Compile(expression)
	if err != nil {
		return nil, err
	}

	return &PathProgram{program: program, expression: expression}, nil
}

// Match evaluates the expression for a slash-separated path.
func (p *PathProgram) Match(path string) bool {
	return EvalBool(p.program, map[string]any{"path": path})
}

func (p *PathProgram) String() string {
	return p.expression
}
