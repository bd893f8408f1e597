package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/macropower/rulekit/api"
	"github.com/macropower/rulekit/api/v1beta1/configs"
	"github.com/macropower/rulekit/api/v1beta1/projectconfigs"
	"github.com/macropower/rulekit/pkg/store"
)

// LoadProject loads a project configuration from path.
func LoadProject(path string, opts ...LoaderOpt) (*projectconfigs.ProjectConfig, error) {
	cfg, err := NewLoader(projectconfigs.New, projectconfigs.DefaultValidator, opts...).LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load project config: %w", err)
	}

	return cfg, nil
}

// Rules is the effective rules configuration for a project.
type Rules struct {
	Config *store.Config
	// Root is the directory relative rule paths are resolved against.
	Root string
	// ProjectFile is the project config that was applied, if any.
	ProjectFile string
}

// StoreOpts returns the directories and [store.Opt]s for loading a
// [store.Store] with these rules.
func (r *Rules) StoreOpts() ([]string, []store.Opt) {
	return r.Config.ResolveDirs(r.Root), r.Config.Opts(r.Root)
}

// ResolveRules determines the rules configuration for target. When a
// project config is found in target or one of its parents, its rules
// override the global ones and its directory becomes the project root.
// Otherwise the global rules apply, rooted at the closest parent of target
// that contains one of the relative rule directories or the legacy file,
// falling back to root.
func ResolveRules(global *configs.Config, target, root string, opts ...LoaderOpt) (*Rules, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	cfg := store.NewConfig()
	if global != nil {
		cfg.Merge(global.Rules)
	}

	rules := &Rules{Config: cfg, Root: absRoot}

	path, err := projectconfigs.Find(target)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}
	if path == "" {
		dir, err := findRulesRoot(target, cfg)
		if err != nil {
			return nil, err
		}
		if dir != "" {
			rules.Root = dir
		}

		return rules, nil
	}

	project, err := LoadProject(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("using project config", slog.String("path", path))

	rules.Config.Merge(project.Rules)
	rules.Root = projectconfigs.Root(path)
	rules.ProjectFile = path

	return rules, nil
}

// findRulesRoot returns the closest directory at or above target that
// contains one of cfg's relative rule directories or its legacy file.
func findRulesRoot(target string, cfg *store.Config) (string, error) {
	var dirs, files []string

	for _, dir := range cfg.Dirs {
		if !filepath.IsAbs(dir) {
			dirs = append(dirs, filepath.FromSlash(dir))
		}
	}
	if cfg.LegacyFile != nil && *cfg.LegacyFile != "" && !filepath.IsAbs(*cfg.LegacyFile) {
		files = append(files, filepath.FromSlash(*cfg.LegacyFile))
	}

	if len(dirs) == 0 && len(files) == 0 {
		return "", nil
	}

	root, err := api.FindUp(target, func(dir string) bool {
		for _, d := range dirs {
			info, err := os.Stat(filepath.Join(dir, d))
			if err == nil && info.IsDir() {
				return true
			}
		}

		for _, f := range files {
			info, err := os.Stat(filepath.Join(dir, f))
			if err == nil && info.Mode().IsRegular() {
				return true
			}
		}

		return false
	})
	if err != nil {
		return "", fmt.Errorf("find project root: %w", err)
	}

	if root != "" {
		slog.Debug("using project root", slog.String("path", root))
	}

	return root, nil
}
