// Package projectconfigs provides the ProjectConfig configuration type for
// rulekit. A project config lives in the repository and overrides the global
// rules configuration for that project.
package projectconfigs

import (
	"fmt"
	"path/filepath"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rulekit/api"
	"github.com/macropower/rulekit/api/v1beta1"
	"github.com/macropower/rulekit/pkg/store"
	"github.com/macropower/rulekit/pkg/yaml"
)

// Kind is the kind of project configuration files.
const Kind = "ProjectConfig"

//go:generate go run ../../../internal/schemagen -kind ProjectConfig -o projectconfigs.v1beta1.json

var (
	// FileNames contains the valid names for project configuration files.
	FileNames = []string{
		".rulekit.yaml",
		"rulekit.yaml",
	}

	//go:embed projectconfigs.v1beta1.json
	projectSchemaJSON []byte

	// DefaultValidator validates project configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/projectconfigs.v1beta1.json", projectSchemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*ProjectConfig)(nil)
)

// ProjectConfig represents project-level configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type ProjectConfig struct {
	// Rules overrides the global rules configuration. Relative paths are
	// resolved against the directory containing the project config.
	Rules            *store.Config `json:"rules,omitempty" jsonschema:"title=Rules"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new [ProjectConfig].
func New() *ProjectConfig {
	return &ProjectConfig{
		TypeMeta: v1beta1.NewTypeMeta(Kind),
		Rules: &store.Config{},
	}
}

// EnsureDefaults initializes nil fields to their default values. Unset
// rules fields are left unset, so they do not override the global config.
func (c *ProjectConfig) EnsureDefaults() {
	if c.Rules == nil {
		c.Rules = &store.Config{}
	}
}

// Validate validates the project configuration.
func (c *ProjectConfig) Validate() error {
	err := c.Check(Kind)
	if err != nil {
		return err //nolint:wrapcheck // Already descriptive.
	}

	if c.Rules != nil {
		err = c.Rules.Validate()
		if err != nil {
			return fmt.Errorf("validate rules config: %w", err)
		}
	}

	return nil
}

func (c ProjectConfig) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchema(jss, Kind)
}

// Find searches for a project config file starting from targetPath
// and walking up the directory tree until the filesystem root.
// It checks for all [FileNames] in each directory.
// Returns the path to the config file if found, or empty string if not found.
func Find(targetPath string) (string, error) {
	path, err := api.FindConfigFile(targetPath, FileNames)
	if err != nil {
		return "", fmt.Errorf("find project config: %w", err)
	}

	return path, nil
}

// Root returns the project root for a project config file path: the
// directory containing it.
func Root(path string) string {
	return filepath.Dir(path)
}
