package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	// ErrPathRequired is returned when a tool is called without a path.
	ErrPathRequired = errors.New("path is required")
	// ErrIDRequired is returned when a tool is called without a rule ID.
	ErrIDRequired = errors.New("id is required")
)

// GetRuleParams defines parameters for the get_rule tool.
type GetRuleParams struct {
	ID string `json:"id" jsonschema:"the rule ID, exactly as returned by list_rules or resolve_rules"`
}

// GetRuleResult contains the result of getting a single rule.
type GetRuleResult struct {
	Rule        *RuleDetails `json:"rule,omitempty"`
	Message     string       `json:"message"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Found       bool         `json:"found"`
}

func (s *Server) handleGetRule(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params GetRuleParams,
) (*mcp.CallToolResult, GetRuleResult, error) {
	id := strings.TrimSpace(params.ID)
	if id == "" {
		return nil, GetRuleResult{}, ErrIDRequired
	}

	result := GetRuleResult{}

	st := s.source.Current()

	r, ok := st.Get(id)
	if !ok {
		result.Suggestions = st.Suggest(id)
		result.Message = fmt.Sprintf("Rule %q not found.", id)

		if len(result.Suggestions) > 0 {
			result.Message += fmt.Sprintf(" Did you mean: %s?", strings.Join(result.Suggestions, ", "))
		}

		result.Message += " Use list_rules to see valid IDs."

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: result.Message},
			},
		}, result, nil
	}

	details := newRuleDetails(r)
	result.Found = true
	result.Rule = &details
	result.Message = fmt.Sprintf("Found rule %q.", id)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("# %s (%s)\n\n%s\n", r.ID, r.Mode, r.Body)},
		},
	}, result, nil
}
