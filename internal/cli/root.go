package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulekit/pkg/log"
)

const (
	cmdName = "rulekit"
	cmdDesc = `Resolve the AI assistant rules that apply to files in a project.`

	cmdExamples = `  # Show the rules that apply to a file:
  rulekit resolve src/app/main.py

  # Also activate a manual rule:
  rulekit resolve src/app/main.py --request testing/pytest

  # List every rule as JSON:
  rulekit list -o json

  # Serve the rules to an assistant over MCP:
  rulekit serve-mcp`
)

type RootArgs struct {
	LogLevel   string
	LogFormat  string
	ConfigPath string
	Dirs       []string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the rulekit configuration file")
	cmd.PersistentFlags().
		StringSliceVar(&ra.Dirs, "dir", nil, "Rule directory, overrides the configured directories (repeatable)")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkPersistentFlagDirname("dir")
	if err != nil {
		panic(fmt.Errorf("mark dir flag: %w", err))
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		SilenceUsage:      true,
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewResolveCmd(NewResolveArgs(args)),
		NewListCmd(NewListArgs(args)),
		NewShowCmd(NewShowArgs(args)),
		NewValidateCmd(args),
		NewServeMCPCmd(NewServeMCPArgs(args)),
		NewConfigCmd(NewConfigArgs(args)),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logger, err := log.New(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		slog.SetDefault(logger)

		return nil
	}
}
