package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/macropower/rulekit/api/v1beta1/configs"
)

// LoadGlobal loads the global configuration from path. A missing file is
// not an error: the default configuration is returned instead.
func LoadGlobal(path string, opts ...LoaderOpt) (*configs.Config, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", slog.String("path", path))

		return configs.New(), nil
	}

	cfg, err := NewLoader(configs.New, configs.DefaultValidator, opts...).LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// LoadGlobalFromBytes loads the global configuration from data.
func LoadGlobalFromBytes(data []byte, opts ...LoaderOpt) (*configs.Config, error) {
	cfg, err := NewLoader(configs.New, configs.DefaultValidator, opts...).Load(data)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}
