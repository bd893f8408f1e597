// Package mcp serves rule resolution over the Model Context Protocol.
package mcp

import "strings"

const (
	name         = "rulekit"
	instructions = `MCP Server 'rulekit' tells you which project rules apply to the file you are working on.

Rules are project guidance written by the repository's maintainers (coding conventions, testing practices, architectural constraints). Some rules apply automatically based on the file path; others are available on request.

REQUIRED workflow:
1. Before editing a file, call 'resolve_rules' with the file path relative to the project root.
2. Follow every rule in the 'rules' list of the result.
3. Review the 'available' list. If a rule's description is relevant to your task, call 'resolve_rules' again with its ID in 'requested', or fetch it with 'get_rule'.

Use 'list_rules' to see every rule in the project with its activation mode.
`

	// Maximum number of characters of rule body returned in summaries.
	maxPreviewLen = 200
)

// preview returns the first maxLen runes of s, trimmed of surrounding
// whitespace, with an ellipsis when anything was cut.
func preview(s string, maxLen int) string {
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return strings.TrimRight(string(runes[:maxLen]), " \t\n") + "..."
}
