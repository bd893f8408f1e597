// Package config loads rulekit configuration files.
//
// The global configuration lives in the user's config directory. A project
// configuration found by walking up from a target path overrides the global
// rules settings for that project.
package config
