// Package expr compiles and evaluates CEL (Common Expression Language)
// expressions against the path of the file being edited.
//
// Rule match expressions have access to the variable:
//   - `path` (string): The slash-separated path, relative to the project root
//
// And these functions, in addition to the CEL strings and lists extensions:
//   - glob(path, pattern): Glob matching, with `**` and `{a,b}`
//   - pathBase, pathDir, pathExt, pathStem: Path elements as strings
//   - pathSegments(path): The path's directory and file names as a list
package expr
