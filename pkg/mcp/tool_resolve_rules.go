package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/rulekit/pkg/resolve"
	"github.com/macropower/rulekit/pkg/rule"
)

// ResolveRulesParams defines parameters for the resolve_rules tool.
type ResolveRulesParams struct {
	Path      string   `json:"path"                jsonschema:"the file path to resolve rules for, relative to the project root"`
	Requested []string `json:"requested,omitempty" jsonschema:"IDs of agent-requested or manual rules to activate in addition to the automatic ones"`
}

// ResolveRulesResult contains the rules that apply to a path.
type ResolveRulesResult struct {
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	Path        string              `json:"path"`
	Message     string              `json:"message"`
	Rules       []RuleDetails       `json:"rules"`
	Available   []RuleSummary       `json:"available"`
	Unknown     []string            `json:"unknown,omitempty"`
}

// RuleSummary describes a rule without its body.
type RuleSummary struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Mode        string   `json:"mode"`
	Preview     string   `json:"preview,omitempty"`
	Globs       []string `json:"globs,omitempty"`
}

// RuleDetails describes a rule including its body.
type RuleDetails struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Mode        string   `json:"mode"`
	Match       string   `json:"match,omitempty"`
	Body        string   `json:"body"`
	Source      string   `json:"source"`
	Globs       []string `json:"globs,omitempty"`
}

func newRuleSummary(r *rule.Rule) RuleSummary {
	return RuleSummary{
		ID:          r.ID,
		Description: r.Description,
		Mode:        r.Mode.String(),
		Globs:       r.Globs,
		Preview:     preview(r.Body, maxPreviewLen),
	}
}

func newRuleDetails(r *rule.Rule) RuleDetails {
	return RuleDetails{
		ID:          r.ID,
		Description: r.Description,
		Mode:        r.Mode.String(),
		Globs:       r.Globs,
		Match:       r.Match,
		Body:        r.Body,
		Source:      r.Source,
	}
}

func (s *Server) handleResolveRules(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	params ResolveRulesParams,
) (*mcp.CallToolResult, ResolveRulesResult, error) {
	if strings.TrimSpace(params.Path) == "" {
		return nil, ResolveRulesResult{}, ErrPathRequired
	}

	res := s.resolver.ResolveContext(ctx, params.Path, resolve.WithRequested(params.Requested...))

	result := ResolveRulesResult{
		Path:        res.Path,
		Rules:       make([]RuleDetails, 0, len(res.Rules)),
		Available:   make([]RuleSummary, 0, len(res.Available)),
		Unknown:     res.Unknown,
		Suggestions: res.Suggestions,
	}

	for _, r := range res.Rules {
		result.Rules = append(result.Rules, newRuleDetails(r))
	}
	for _, r := range res.Available {
		result.Available = append(result.Available, newRuleSummary(r))
	}

	result.Message = formatResolveMessage(res)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatResolveText(result)},
		},
	}, result, nil
}

func formatResolveMessage(res resolve.Result) string {
	msg := fmt.Sprintf("%d rules apply to %s, %d more available on request.",
		len(res.Rules), res.Path, len(res.Available))

	for _, id := range res.Unknown {
		msg += fmt.Sprintf(" Unknown rule ID %q.", id)

		if suggestions := res.Suggestions[id]; len(suggestions) > 0 {
			msg += fmt.Sprintf(" Did you mean: %s?", strings.Join(suggestions, ", "))
		}
	}

	return msg
}

// formatResolveText renders the result as text for clients that do not read
// structured content.
func formatResolveText(result ResolveRulesResult) string {
	var b strings.Builder

	b.WriteString(result.Message)
	b.WriteString("\n")

	for _, r := range result.Rules {
		fmt.Fprintf(&b, "\n## %s (%s)\n", r.ID, r.Mode)
		if r.Description != "" {
			fmt.Fprintf(&b, "%s\n", r.Description)
		}

		fmt.Fprintf(&b, "\n%s\n", r.Body)
	}

	if len(result.Available) > 0 {
		b.WriteString("\nAvailable on request:\n")

		for _, r := range result.Available {
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.ID, r.Mode, r.Description)
		}
	}

	return b.String()
}
