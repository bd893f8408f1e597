package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macropower/rulekit/pkg/resolve"
	"github.com/macropower/rulekit/pkg/rule"
)

type ResolveArgs struct {
	*RootArgs

	Path      string
	Output    string
	Requested []string
}

func NewResolveArgs(rootArgs *RootArgs) *ResolveArgs {
	return &ResolveArgs{RootArgs: rootArgs}
}

func (ra *ResolveArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&ra.Requested, "request", "r", nil,
		"ID of an agent-requested or manual rule to activate (repeatable)")

	addOutputFlag(cmd, &ra.Output)

	err := cmd.RegisterFlagCompletionFunc("request", ruleIDCompletion(ra.RootArgs))
	if err != nil {
		panic(err)
	}
}

func NewResolveCmd(ra *ResolveArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show the rules that apply to a path",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return nil, cobra.ShellCompDirectiveDefault
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Path = args[0]

			return runResolve(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runResolve(cmd *cobra.Command, ra *ResolveArgs) error {
	format, err := getOutputFormat(ra.Output)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	st, rules, err := ra.loadStore(ctx, ra.Path)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	// Paths are given relative to the working directory, but rule globs are
	// relative to the project root.
	path := ra.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	res := resolve.New(st, resolve.WithRoot(rules.Root)).
		ResolveContext(ctx, path, resolve.WithRequested(ra.Requested...))

	for _, id := range res.Unknown {
		slog.WarnContext(ctx, "unknown rule requested", slog.String("id", id))
	}

	return writeOutput(cmd.OutOrStdout(), format, res, func(w io.Writer) error {
		return writeResolveText(w, res)
	})
}

func writeResolveText(w io.Writer, res resolve.Result) error {
	var sb strings.Builder

	if len(res.Rules) == 0 {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("No rules apply to %s.", res.Path)))
		sb.WriteString("\n")
	}

	for i, r := range res.Rules {
		if i > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(headingStyle.Render(r.ID))
		sb.WriteString(" ")
		sb.WriteString(modeStyle(r.Mode).Render("(" + r.Mode.String() + ")"))
		sb.WriteString("\n")

		if r.Description != "" {
			sb.WriteString(subtleStyle.Render(r.Description))
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
		sb.WriteString(r.Body)
		sb.WriteString("\n")
	}

	if len(res.Available) > 0 {
		sb.WriteString("\n")
		sb.WriteString(idStyle.Render("Available on request:"))
		sb.WriteString("\n")

		for _, r := range res.Available {
			writeSummaryLine(&sb, r)
		}
	}

	for _, id := range res.Unknown {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("Unknown rule: %s%s", id, didYouMean(res.Suggestions[id]))))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func writeSummaryLine(sb *strings.Builder, r *rule.Rule) {
	sb.WriteString("  ")
	sb.WriteString(idStyle.Render(r.ID))
	sb.WriteString(" ")
	sb.WriteString(modeStyle(r.Mode).Render("(" + r.Mode.String() + ")"))

	if r.Description != "" {
		sb.WriteString(" ")
		sb.WriteString(subtleStyle.Render(r.Description))
	}

	sb.WriteString("\n")
}
