package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/rulekit/pkg/rule"
	"github.com/macropower/rulekit/pkg/yaml"
)

// ErrorHandler prints err for [fang.Execute], followed by a hint on how to
// fix it when one is known.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	var sb strings.Builder

	sb.WriteString(styles.ErrorHeader.String())
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(err.Error()))
	sb.WriteString("\n\n")

	hint := styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform()

	switch {
	case isUsageError(err):
		sb.WriteString(lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			hint.PaddingLeft(1).Render("for usage."),
		))
		sb.WriteString("\n\n")

	case errors.Is(err, rule.ErrDuplicateRule):
		sb.WriteString(hint.Render("Rule IDs are file paths relative to their rule directory; rename one of the files."))
		sb.WriteString("\n\n")

	case errors.Is(err, ErrSkippedRules):
		sb.WriteString(hint.Render("Skipped files are ignored by resolve and serve-mcp."))
		sb.WriteString("\n\n")

	case errors.Is(err, ErrRuleNotFound):
		sb.WriteString(lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Run"),
			styles.Program.Command.Render(cmdName+" list"),
			hint.PaddingLeft(1).Render("to see the available rules."),
		))
		sb.WriteString("\n\n")

	case errors.Is(err, yaml.ErrSchemaViolation):
		sb.WriteString(lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Run"),
			styles.Program.Command.Render(cmdName+" config --write --force"),
			hint.PaddingLeft(1).Render("to replace the global config with the defaults."),
		))
		sb.WriteString("\n\n")
	}

	_, _ = io.WriteString(w, sb.String())
}

// XXX: Cobra does not type usage errors, so they are matched by prefix.
// See: https://github.com/spf13/cobra/pull/2266
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"accepts ",
		"requires at least",
		"if any flags in the group",
		"at least one of the flags in the group",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}
