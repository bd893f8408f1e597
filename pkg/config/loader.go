package config

import (
	"fmt"

	"github.com/macropower/rulekit/api"
	"github.com/macropower/rulekit/api/v1beta1"
	"github.com/macropower/rulekit/pkg/yaml"
)

// Validator validates a decoded document, e.g. against a JSON schema.
type Validator interface {
	Validate(data any) error
}

// Document is a configuration file format handled by a [Loader].
type Document interface {
	v1beta1.Object
	Validate() error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
	color     bool
}

// WithValidator replaces the loader's schema validator. A nil validator
// disables schema validation.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithColor enables colored source excerpts in errors.
func WithColor(color bool) LoaderOpt {
	return func(o *loaderOptions) {
		o.color = color
	}
}

// Loader loads documents of type T. Loading runs in stages: the YAML is
// parsed, checked against the schema, decoded into T, defaulted, and
// finally checked with T's own Validate method. Errors from the first two
// stages include the position in the source.
type Loader[T Document] struct {
	newFunc   func() T
	validator Validator
	color     bool
}

// NewLoader creates a [Loader]. The newFunc parameter is the constructor for
// type T (e.g., configs.New).
func NewLoader[T Document](newFunc func() T, validator Validator, opts ...LoaderOpt) *Loader[T] {
	options := &loaderOptions{validator: validator}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader[T]{
		newFunc:   newFunc,
		validator: options.validator,
		color:     options.color,
	}
}

// Validate checks that data is well-formed YAML that matches the schema.
func (l *Loader[T]) Validate(data []byte) error {
	var doc any

	err := yaml.Unmarshal(data, &doc, yaml.WithColor(l.color))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if l.validator == nil {
		return nil
	}

	err = l.validator.Validate(doc)
	if err != nil {
		return fmt.Errorf("validate: %w", yaml.Annotate(err, yaml.WithSource(data), yaml.WithColor(l.color)))
	}

	return nil
}

// Load validates and decodes data.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load(data []byte) (T, error) {
	var zero T

	err := l.Validate(data)
	if err != nil {
		return zero, err
	}

	doc := l.newFunc()

	err = yaml.Unmarshal(data, doc, yaml.WithColor(l.color))
	if err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}

	doc.EnsureDefaults()

	err = doc.Validate()
	if err != nil {
		return zero, err //nolint:wrapcheck // Already descriptive.
	}

	return doc, nil
}

// LoadFile reads and loads the document at path.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) LoadFile(path string) (T, error) {
	var zero T

	data, err := api.ReadFile(path)
	if err != nil {
		return zero, err //nolint:wrapcheck // Already wrapped.
	}

	return l.Load(data)
}
