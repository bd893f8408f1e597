package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct{}

// ListRulesResult contains every loaded rule.
type ListRulesResult struct {
	Message   string        `json:"message"`
	Rules     []RuleSummary `json:"rules"`
	RuleCount int           `json:"ruleCount"`
}

func (s *Server) handleListRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListRulesParams,
) (*mcp.CallToolResult, ListRulesResult, error) {
	rules := s.source.Current().Rules()

	result := ListRulesResult{
		Rules:     make([]RuleSummary, 0, len(rules)),
		RuleCount: len(rules),
		Message:   fmt.Sprintf("Found %d rules.", len(rules)),
	}

	for _, r := range rules {
		result.Rules = append(result.Rules, newRuleSummary(r))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Message},
		},
	}, result, nil
}
