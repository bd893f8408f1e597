package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/macropower/rulekit/pkg/rule"
)

type ListArgs struct {
	*RootArgs

	Output string
	Mode   string
}

func NewListArgs(rootArgs *RootArgs) *ListArgs {
	return &ListArgs{RootArgs: rootArgs}
}

func (la *ListArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&la.Mode, "mode", "", fmt.Sprintf("Only list rules with this mode, one of: %s", rule.AllModes))

	addOutputFlag(cmd, &la.Output)

	err := cmd.RegisterFlagCompletionFunc("mode",
		cobra.FixedCompletions(rule.AllModes, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewListCmd(la *ListArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, la)
		},
	}
	la.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runList(cmd *cobra.Command, la *ListArgs) error {
	format, err := getOutputFormat(la.Output)
	if err != nil {
		return err
	}

	var mode rule.Mode
	if la.Mode != "" {
		mode, err = rule.ParseMode(la.Mode)
		if err != nil {
			return err //nolint:wrapcheck // Already descriptive.
		}
	}

	st, _, err := la.loadStore(cmd.Context(), ".")
	if err != nil {
		return err
	}

	rules := make([]*rule.Rule, 0, st.Len())
	for _, r := range st.Rules() {
		if mode == "" || r.Mode == mode {
			rules = append(rules, r)
		}
	}

	return writeOutput(cmd.OutOrStdout(), format, rules, func(w io.Writer) error {
		if len(rules) == 0 {
			_, err := fmt.Fprintln(w, subtleStyle.Render("No rules found."))
			if err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			return nil
		}

		_, err := fmt.Fprintln(w, renderRuleTable(rules))
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil
	})
}
