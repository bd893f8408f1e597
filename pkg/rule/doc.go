// Package rule defines assistant rule files and decides whether a rule
// applies to the path being edited.
//
// A rule file is a markdown document with a YAML metadata header:
//
//	---
//	description: Python testing conventions
//	globs: "**/*.py, tests/**"
//	alwaysApply: false
//	---
//	Prefer pytest fixtures over setUp methods.
//
// Every rule has exactly one [Mode]. Rules in [ModeAlways] apply to every
// path, rules in [ModeGlob] apply when one of their glob patterns (or their
// optional CEL match expression) matches, and rules in [ModeAgentRequested]
// or [ModeManual] are never applied implicitly.
//
// The header may set `mode` explicitly. Otherwise the mode is derived from
// `alwaysApply`, which must then be present:
//   - alwaysApply: true -> always
//   - globs or match set -> glob
//   - description set -> agent-requested
//   - otherwise -> manual
//
// CEL match expressions have access to the variable `path` and the functions
// documented in [github.com/macropower/rulekit/pkg/expr].
package rule
