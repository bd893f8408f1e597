package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macropower/rulekit/pkg/rule"
)

// ErrRuleNotFound is returned when a rule ID does not exist.
var ErrRuleNotFound = errors.New("rule not found")

type ShowArgs struct {
	*RootArgs

	ID     string
	Output string
}

func NewShowArgs(rootArgs *RootArgs) *ShowArgs {
	return &ShowArgs{RootArgs: rootArgs}
}

func (sa *ShowArgs) AddFlags(cmd *cobra.Command) {
	addOutputFlag(cmd, &sa.Output)
}

func NewShowCmd(sa *ShowArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a rule's metadata and body",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			return tryGetRuleIDs(cmd, sa.RootArgs), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			sa.ID = args[0]

			return runShow(cmd, sa)
		},
	}
	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, sa *ShowArgs) error {
	format, err := getOutputFormat(sa.Output)
	if err != nil {
		return err
	}

	st, _, err := sa.loadStore(cmd.Context(), ".")
	if err != nil {
		return err
	}

	r, ok := st.Get(sa.ID)
	if !ok {
		return fmt.Errorf("%w: %q%s", ErrRuleNotFound, sa.ID, didYouMean(st.Suggest(sa.ID)))
	}

	out := cmd.OutOrStdout()

	return writeOutput(out, format, r, func(w io.Writer) error {
		text := formatRuleMarkdown(r)

		if isTerminal(out) {
			highlighted, err := NewHighlighter("markdown").Render(text)
			if err == nil {
				text = highlighted
			}
		}

		_, err := io.WriteString(w, text)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil
	})
}

// didYouMean formats suggested rule IDs as a message suffix.
func didYouMean(ids []string) string {
	if len(ids) == 0 {
		return ""
	}

	return fmt.Sprintf(" (did you mean %s?)", strings.Join(ids, ", "))
}

// formatRuleMarkdown renders a rule as a rule file with a metadata header.
func formatRuleMarkdown(r *rule.Rule) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "# %s\n", r.ID)

	if r.Source != "" {
		fmt.Fprintf(&sb, "# %s\n", r.Source)
	}

	fmt.Fprintf(&sb, "mode: %s\n", r.Mode)

	if r.Description != "" {
		fmt.Fprintf(&sb, "description: %q\n", r.Description)
	}
	if len(r.Globs) > 0 {
		sb.WriteString("globs:\n")

		for _, g := range r.Globs {
			fmt.Fprintf(&sb, "  - %q\n", g)
		}
	}
	if r.Match != "" {
		fmt.Fprintf(&sb, "match: %q\n", r.Match)
	}

	sb.WriteString("---\n")
	sb.WriteString(r.Body)
	sb.WriteString("\n")

	return sb.String()
}
