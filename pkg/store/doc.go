// Package store loads rule files from directories into an immutable
// snapshot.
//
// A [Store] is read-only once loaded and safe for concurrent use. Malformed
// rule files are skipped with a warning and recorded in [Store.Skipped].
// Two files resolving to the same rule ID fail the load with a
// [*rule.DuplicateRuleError].
//
// A [Watcher] keeps a current [Store] up to date by reloading whenever rule
// files change on disk. Reloads never modify an existing snapshot; they
// publish a new one.
package store
