package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulekit/pkg/mcp"
	"github.com/macropower/rulekit/pkg/resolve"
	"github.com/macropower/rulekit/pkg/store"
)

type ServeMCPArgs struct {
	*RootArgs

	Address string
	Watch   bool
}

func NewServeMCPArgs(rootArgs *RootArgs) *ServeMCPArgs {
	return &ServeMCPArgs{RootArgs: rootArgs}
}

func (sa *ServeMCPArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sa.Address, "address", "", "Serve streamable HTTP at this address instead of stdio")
	cmd.Flags().BoolVarP(&sa.Watch, "watch", "w", true, "Reload rules when rule files change")
}

func NewServeMCPCmd(sa *ServeMCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve rules to an AI assistant over MCP",
		Long: `Start an MCP server exposing the resolve_rules, list_rules and get_rule tools
for the project in the working directory. Stdio is used unless an address is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMCP(cmd, sa)
		},
	}
	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runServeMCP(cmd *cobra.Command, sa *ServeMCPArgs) error {
	ctx := cmd.Context()

	cfg, err := sa.loadConfig()
	if err != nil {
		return err
	}

	// Flags override the config file only when set.
	address := cfg.MCP.Address
	if cmd.Flags().Changed("address") {
		address = sa.Address
	}

	watch := *cfg.MCP.Watch
	if cmd.Flags().Changed("watch") {
		watch = sa.Watch
	}

	rules, err := sa.rules(".")
	if err != nil {
		return err
	}

	dirs, opts := rules.StoreOpts()

	var source resolve.Source

	if watch {
		w, err := store.NewWatcher(ctx, dirs, store.WithStoreOpts(opts...))
		if err != nil {
			return fmt.Errorf("watch rules: %w", err)
		}

		defer func() {
			err := w.Close()
			if err != nil {
				slog.Error("close rule watcher", slog.Any("err", err))
			}
		}()

		ch := make(chan store.Event)
		w.Subscribe(ch)

		go logStoreEvents(ctx, ch)
		go w.Run(ctx)

		source = w
	} else {
		st, err := store.Load(ctx, dirs, opts...)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}

		source = st
	}

	slog.InfoContext(ctx, "loaded rules",
		slog.Int("count", source.Current().Len()),
		slog.String("root", rules.Root),
		slog.Bool("watch", watch),
	)

	err = mcp.NewServer(address, source, resolve.WithRoot(rules.Root)).Serve(ctx)
	if err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}

	return nil
}

func logStoreEvents(ctx context.Context, ch <-chan store.Event) {
	for {
		select {
		case <-ctx.Done():
			return

		case event := <-ch:
			switch e := event.(type) {
			case store.EventReload:
				slog.InfoContext(e.GetContext(), "reloaded rules", slog.Int("count", e.Store.Len()))

			case store.EventError:
				slog.ErrorContext(e.GetContext(), "reload rules", slog.Any("err", e.Err))
			}
		}
	}
}
