package yaml

import (
	"errors"

	"github.com/goccy/go-yaml"
)

// Unmarshal decodes data into v. Syntax and type errors are returned as an
// [*Error] that points at the offending token, with data attached as the
// source. Duplicate mapping keys are allowed; the last one wins.
func Unmarshal(data []byte, v any, opts ...ErrorOpt) error {
	err := yaml.UnmarshalWithOptions(data, v, yaml.AllowDuplicateMapKey())
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if !errors.As(err, &yamlErr) {
		return err //nolint:wrapcheck // Not a positional error.
	}

	return NewError(errors.New(yamlErr.GetMessage()),
		append([]ErrorOpt{WithToken(yamlErr.GetToken()), WithSource(data)}, opts...)...,
	)
}

// Marshal encodes v using two-space indentation, with sequences indented
// under their parent key.
func Marshal(v any) ([]byte, error) {
	return yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(true)) //nolint:wrapcheck // Return the original error.
}
