package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultDir is the default rule directory, relative to the project root.
	DefaultDir = ".cursor/rules"
	// DefaultLegacyFile is the default legacy rule file, relative to the
	// project root.
	DefaultLegacyFile = ".cursorrules"
)

// ErrInvalidConfig is returned by [Config.Validate].
var ErrInvalidConfig = errors.New("invalid rules config")

// Config configures where rules are loaded from.
type Config struct {
	// LegacyFile is a headerless rule file loaded as an always mode rule.
	// Set to an empty string to disable.
	LegacyFile *string `json:"legacyFile,omitempty" jsonschema:"title=Legacy File"`
	// OptionalDirs skips rule directories that do not exist.
	OptionalDirs *bool `json:"optionalDirs,omitempty" jsonschema:"title=Optional Directories"`
	// Dirs are directories searched recursively for rule files. Relative
	// paths are resolved against the project root.
	Dirs []string `json:"dirs,omitempty" jsonschema:"title=Directories"`
	// Extensions are the file extensions treated as rule files.
	Extensions []string `json:"extensions,omitempty" jsonschema:"title=Extensions"`
}

// NewConfig creates a new [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes unset fields to their default values.
func (c *Config) EnsureDefaults() {
	if len(c.Dirs) == 0 {
		c.Dirs = []string{DefaultDir}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if c.LegacyFile == nil {
		legacy := DefaultLegacyFile
		c.LegacyFile = &legacy
	}
	if c.OptionalDirs == nil {
		optional := true
		c.OptionalDirs = &optional
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidConfig, ext)
		}
	}

	for _, dir := range c.Dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%w: empty directory", ErrInvalidConfig)
		}
	}

	return nil
}

// Merge overrides fields of c with the fields set in other.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Dirs) > 0 {
		c.Dirs = append([]string(nil), other.Dirs...)
	}
	if len(other.Extensions) > 0 {
		c.Extensions = append([]string(nil), other.Extensions...)
	}
	if other.LegacyFile != nil {
		legacy := *other.LegacyFile
		c.LegacyFile = &legacy
	}
	if other.OptionalDirs != nil {
		optional := *other.OptionalDirs
		c.OptionalDirs = &optional
	}
}

// ResolveDirs returns the rule directories, with relative paths joined to
// root.
func (c *Config) ResolveDirs(root string) []string {
	dirs := make([]string, 0, len(c.Dirs))
	for _, dir := range c.Dirs {
		dirs = append(dirs, resolvePath(root, dir))
	}

	return dirs
}

// Opts converts the configuration into [Load] options, with relative paths
// joined to root.
func (c *Config) Opts(root string) []Opt {
	opts := []Opt{WithExtensions(c.Extensions...)}

	if c.LegacyFile != nil && *c.LegacyFile != "" {
		opts = append(opts, WithLegacyFile(resolvePath(root, *c.LegacyFile)))
	}
	if c.OptionalDirs != nil {
		opts = append(opts, WithOptionalDirs(*c.OptionalDirs))
	}

	return opts
}

func resolvePath(root, path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) || root == "" {
		return path
	}

	return filepath.Join(root, path)
}
