package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/macropower/rulekit/api/v1beta1/configs"
	"github.com/macropower/rulekit/pkg/config"
	"github.com/macropower/rulekit/pkg/store"
)

func (ra *RootArgs) configPath() string {
	if ra.ConfigPath != "" {
		return ra.ConfigPath
	}

	return configs.GetPath()
}

func (ra *RootArgs) loaderOpts() []config.LoaderOpt {
	return []config.LoaderOpt{
		config.WithColor(term.IsTerminal(int(os.Stderr.Fd()))),
	}
}

// loadConfig loads the global configuration.
func (ra *RootArgs) loadConfig() (*configs.Config, error) {
	path := ra.configPath()

	cfg, err := config.LoadGlobal(path, ra.loaderOpts()...)
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return cfg, nil
}

// rules determines the effective rules configuration for target.
func (ra *RootArgs) rules(target string) (*config.Rules, error) {
	cfg, err := ra.loadConfig()
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	rules, err := config.ResolveRules(cfg, target, cwd, ra.loaderOpts()...)
	if err != nil {
		return nil, fmt.Errorf("resolve rules config: %w", err)
	}

	if len(ra.Dirs) > 0 {
		dirs := make([]string, 0, len(ra.Dirs))
		for _, dir := range ra.Dirs {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, fmt.Errorf("get absolute path: %w", err)
			}

			dirs = append(dirs, abs)
		}

		rules.Config.Dirs = dirs
	}

	slog.Debug("rules config",
		slog.String("root", rules.Root),
		slog.String("project", rules.ProjectFile),
		slog.Any("dirs", rules.Config.Dirs),
	)

	return rules, nil
}

// loadStore loads the rules that apply to target's project.
func (ra *RootArgs) loadStore(ctx context.Context, target string) (*store.Store, *config.Rules, error) {
	rules, err := ra.rules(target)
	if err != nil {
		return nil, nil, err
	}

	dirs, opts := rules.StoreOpts()

	st, err := store.Load(ctx, dirs, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load rules: %w", err)
	}

	return st, rules, nil
}
