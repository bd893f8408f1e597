package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/rulekit/pkg/rule"
	"github.com/macropower/rulekit/pkg/yaml"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

var (
	ErrUnknownOutputFormat = errors.New("unknown output format")

	AllOutputFormats = []string{
		string(OutputText),
		string(OutputJSON),
		string(OutputYAML),
	}
)

var (
	idStyle      = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Faint(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	modeColors = map[rule.Mode]lipgloss.Color{
		rule.ModeAlways:         lipgloss.Color("2"),
		rule.ModeGlob:           lipgloss.Color("4"),
		rule.ModeAgentRequested: lipgloss.Color("5"),
		rule.ModeManual:         lipgloss.Color("8"),
	}
)

func modeStyle(m rule.Mode) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(modeColors[m])
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", string(OutputText),
		fmt.Sprintf("Output format, one of: %s", AllOutputFormats))

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(AllOutputFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func getOutputFormat(output string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(output))
	if !slices.Contains(AllOutputFormats, string(f)) {
		return "", fmt.Errorf("%w %q, must be one of: %s", ErrUnknownOutputFormat, output, AllOutputFormats)
	}

	return f, nil
}

// writeOutput writes v as JSON or YAML, or calls text for the text format.
func writeOutput(w io.Writer, format OutputFormat, v any, text func(io.Writer) error) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(v)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil

	case OutputYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		_, err = w.Write(b)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil

	case OutputText:
	}

	return text(w)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

func renderRuleTable(rules []*rule.Rule) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("ID", "MODE", "GLOBS", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}

			switch col {
			case 0:
				return s.Inherit(idStyle)
			case 1:
				return s.Inherit(modeStyle(rules[row].Mode))
			case 2:
				return s.Inherit(subtleStyle)
			}

			return s
		})

	for _, r := range rules {
		t.Row(r.ID, r.Mode.String(), strings.Join(r.Globs, ", "), r.Description)
	}

	return t.Render()
}
