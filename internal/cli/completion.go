package cli

import (
	"github.com/spf13/cobra"
)

// Try to load the rules in the working directory to complete rule IDs.
func tryGetRuleIDs(cmd *cobra.Command, ra *RootArgs) []cobra.Completion {
	st, _, err := ra.loadStore(cmd.Context(), ".")
	if err != nil {
		return nil
	}

	completions := make([]cobra.Completion, 0, st.Len())
	for _, r := range st.Rules() {
		desc := r.Mode.String()
		if r.Description != "" {
			desc += ": " + r.Description
		}

		completions = append(completions, cobra.CompletionWithDesc(r.ID, desc))
	}

	return completions
}

func ruleIDCompletion(ra *RootArgs) cobra.CompletionFunc {
	return func(cmd *cobra.Command, _ []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return tryGetRuleIDs(cmd, ra), cobra.ShellCompDirectiveNoFileComp
	}
}
