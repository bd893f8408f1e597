// Package configs provides the global Configuration type for rulekit.
package configs

import (
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rulekit/api"
	"github.com/macropower/rulekit/api/v1beta1"
	"github.com/macropower/rulekit/pkg/mcp"
	"github.com/macropower/rulekit/pkg/store"
	"github.com/macropower/rulekit/pkg/yaml"
)

// Kind is the kind of global configuration files.
const Kind = "Configuration"

//go:generate go run ../../../internal/schemagen -kind Configuration -o configs.v1beta1.json

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed configs.v1beta1.json
	schemaJSON []byte

	// DefaultValidator validates global configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the global rulekit configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// Rules configures where rule files are loaded from.
	Rules *store.Config `json:"rules,omitempty" jsonschema:"title=Rules"`
	// MCP configures the MCP server.
	MCP              *mcp.Config `json:"mcp,omitempty" jsonschema:"title=MCP"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new global [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.NewTypeMeta(Kind),
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Rules == nil {
		c.Rules = store.NewConfig()
	} else {
		c.Rules.EnsureDefaults()
	}

	if c.MCP == nil {
		c.MCP = mcp.NewConfig()
	} else {
		c.MCP.EnsureDefaults()
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
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

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchema(jss, Kind)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := yaml.Marshal(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// DefaultYAML returns the embedded default config.yaml.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultConfigYAML...)
}

// GetPath returns the path to the global configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
