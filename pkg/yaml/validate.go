package yaml

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrSchemaViolation is wrapped by errors returned from [Validator.Validate].
var ErrSchemaViolation = errors.New("schema violation")

// Validator validates decoded YAML documents against a JSON schema.
// Uses [github.com/santhosh-tekuri/jsonschema/v6].
type Validator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

// NewValidator compiles schemaData, registered under url.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var schema any

	err := json.Unmarshal(schemaData, &schema)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	err = compiler.AddResource(url, schema)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{
		schema:  jss,
		printer: message.NewPrinter(language.English),
	}, nil
}

func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate validates data, which must be decoded into generic maps and
// slices. Only the most specific violation is reported, as an [*Error] with
// its Location set, so it can be shown against the source document.
func (v *Validator) Validate(data any) error {
	err := v.schema.Validate(data)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}

	leaf := mostSpecific(verr)

	return NewError(
		fmt.Errorf("%w: %s", ErrSchemaViolation, leaf.ErrorKind.LocalizedString(v.printer)),
		WithLocation(leaf.InstanceLocation...),
	)
}

// mostSpecific returns the leaf cause with the deepest instance location.
// The first one found wins ties.
func mostSpecific(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	best := err
	for _, cause := range err.Causes {
		c := mostSpecific(cause)
		if len(best.Causes) > 0 || len(c.InstanceLocation) > len(best.InstanceLocation) {
			best = c
		}
	}

	return best
}
