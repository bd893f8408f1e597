package mcp

// Config configures the MCP server.
type Config struct {
	// Watch reloads rules when rule files change.
	Watch *bool `json:"watch,omitempty" jsonschema:"title=Watch"`
	// Address to serve streamable HTTP on. Stdio is used when empty.
	Address string `json:"address,omitempty" jsonschema:"title=Address"`
}

// NewConfig creates a new [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes unset fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Watch == nil {
		watch := true
		c.Watch = &watch
	}
}
