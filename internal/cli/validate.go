package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ErrSkippedRules is returned by the validate command when rule files were
// skipped.
var ErrSkippedRules = errors.New("invalid rule files")

func NewValidateCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Check the configuration and every rule file",
		Long: `Load the configuration and all rule files for the project containing path
(default: the working directory). Fails if the configuration is invalid, if
two rule files share an ID, or if any rule file was skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			return runValidate(cmd, ra, target)
		},
	}

	bindEnvVars(cmd)

	return cmd
}

func runValidate(cmd *cobra.Command, ra *RootArgs, target string) error {
	st, rules, err := ra.loadStore(cmd.Context(), target)
	if err != nil {
		return err
	}

	var sb strings.Builder

	if rules.ProjectFile != "" {
		fmt.Fprintf(&sb, "%s %s\n", subtleStyle.Render("project config:"), rules.ProjectFile)
	}

	dirs := st.Dirs()
	if len(dirs) == 0 {
		dirs = []string{"(none)"}
	}

	fmt.Fprintf(&sb, "%s %s\n", subtleStyle.Render("directories:"), strings.Join(dirs, ", "))
	fmt.Fprintf(&sb, "%s %d\n", subtleStyle.Render("rules:"), st.Len())

	skipped := st.Skipped()
	for _, e := range skipped {
		fmt.Fprintf(&sb, "%s %s\n", warnStyle.Render("skipped:"), e.Error())
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if len(skipped) > 0 {
		return fmt.Errorf("%w: %d skipped", ErrSkippedRules, len(skipped))
	}

	return nil
}
