// Package v1beta1 contains the v1beta1 API types for rulekit configuration.
package v1beta1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the current API version for all rulekit configuration kinds.
const APIVersion = "rulekit.dev/v1beta1"

// ValidAPIVersions contains all valid API versions.
var ValidAPIVersions = []string{APIVersion}

var (
	ErrUnsupportedAPIVersion = errors.New("unsupported apiVersion")
	ErrWrongKind             = errors.New("wrong kind")
)

// TypeMeta identifies the format of a configuration file.
type TypeMeta struct {
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

// NewTypeMeta returns a [TypeMeta] for kind at the current [APIVersion].
func NewTypeMeta(kind string) TypeMeta {
	return TypeMeta{APIVersion: APIVersion, Kind: kind}
}

func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Check returns an error unless tm has a supported API version and the
// given kind.
func (tm TypeMeta) Check(kind string) error {
	if !slices.Contains(ValidAPIVersions, tm.APIVersion) {
		return fmt.Errorf("%w %q, want one of %q", ErrUnsupportedAPIVersion, tm.APIVersion, ValidAPIVersions)
	}
	if tm.Kind != kind {
		return fmt.Errorf("%w %q, want %q", ErrWrongKind, tm.Kind, kind)
	}

	return nil
}

// Object is the interface that all config types implement.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchema restricts the apiVersion and kind properties of a generated
// schema to [ValidAPIVersions] and kind. It panics if either property is
// missing, since that means the type does not embed [TypeMeta].
func ExtendSchema(jss *jsonschema.Schema, kind string) {
	setEnum(jss, "apiVersion", ValidAPIVersions...)
	setEnum(jss, "kind", kind)
}

func setEnum(jss *jsonschema.Schema, name string, values ...string) {
	prop, ok := jss.Properties.Get(name)
	if !ok {
		panic(name + " property not found in schema")
	}

	prop.Enum = make([]any, 0, len(values))
	for _, v := range values {
		prop.Enum = append(prop.Enum, v)
	}
}
