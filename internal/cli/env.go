package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars lets each flag of cmd be set with an environment variable
// named after it, e.g. --log-level with RULEKIT_LOG_LEVEL. Flags given on
// the command line take precedence. The variable name is appended to each
// flag's usage so it shows up in help output.
func bindEnvVars(cmd *cobra.Command) {
	for _, flags := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		flags.VisitAll(bindFlagToEnv)
	}
}

func bindFlagToEnv(flag *pflag.Flag) {
	name := flagToEnvName(flag.Name)

	suffix := " ($" + name + ")"
	if !strings.HasSuffix(flag.Usage, suffix) {
		flag.Usage += suffix
	}

	if flag.Changed {
		return
	}

	value, ok := os.LookupEnv(name)
	if !ok {
		return
	}

	err := flag.Value.Set(value)
	if err != nil {
		// Invalid values are ignored so the default applies.
		slog.Error("ignoring environment variable",
			slog.String("env", name),
			slog.String("value", value),
			slog.Any("error", err),
		)

		return
	}

	// Commands check Changed to let flags override config file values.
	flag.Changed = true
}

// flagToEnvName returns the environment variable for a flag name, e.g.
// "log-level" becomes "RULEKIT_LOG_LEVEL".
func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
