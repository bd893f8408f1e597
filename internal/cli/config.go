package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulekit/api/v1beta1/configs"
)

var errConfigAction = errors.New("one of --write or --show is required")

type ConfigArgs struct {
	*RootArgs

	Write bool
	Force bool
	Show  bool
}

func NewConfigArgs(rootArgs *RootArgs) *ConfigArgs {
	return &ConfigArgs{RootArgs: rootArgs}
}

func (ca *ConfigArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&ca.Write, "write", false, "Write the default configuration file")
	cmd.Flags().BoolVar(&ca.Force, "force", false, "Back up and replace an existing configuration file")
	cmd.Flags().BoolVar(&ca.Show, "show", false, "Print the active configuration")

	cmd.MarkFlagsMutuallyExclusive("write", "show")
	cmd.MarkFlagsOneRequired("write", "show")
}

func NewConfigCmd(ca *ConfigArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or show the rulekit configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, ca)
		},
	}
	ca.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runConfig(cmd *cobra.Command, ca *ConfigArgs) error {
	path := ca.configPath()

	switch {
	case ca.Write:
		return configs.WriteDefault(path, ca.Force) //nolint:wrapcheck // Already wrapped.

	case ca.Show:
		cfg, err := ca.loadConfig()
		if err != nil {
			return err
		}

		// Show the rules as overridden by the project config and flags.
		rules, err := ca.rules(".")
		if err != nil {
			return err
		}

		cfg.Rules = rules.Config

		slog.Info("active configuration",
			slog.String("path", path),
			slog.String("project", rules.ProjectFile),
		)

		yamlBytes, err := cfg.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal config yaml: %w", err)
		}

		out := cmd.OutOrStdout()
		yamlConfig := string(yamlBytes)

		if isTerminal(out) {
			pretty, err := NewHighlighter("yaml").Render(yamlConfig)
			if err == nil {
				yamlConfig = pretty
			}
		}

		_, err = fmt.Fprint(out, yamlConfig)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil
	}

	return errConfigAction
}
