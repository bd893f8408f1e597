package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ConfigDir returns the rulekit user config directory:
// $XDG_CONFIG_HOME/rulekit if set, otherwise ~/.config/rulekit. When no home
// directory is available, a directory under the system temp dir is used.
func ConfigDir() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "rulekit")
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", "rulekit")
	}

	dir := filepath.Join(os.TempDir(), "rulekit")

	slog.Warn("no user config directory, using temp dir",
		slog.String("path", dir),
		slog.Any("error", err),
	)

	return dir
}

// GetConfigPath returns the path to filename in [ConfigDir].
func GetConfigPath(filename string) string {
	return filepath.Join(ConfigDir(), filename)
}

// isRegularFile reports whether path is an existing regular file. Paths that
// exist but are something else are errors.
func isRegularFile(path string) (bool, error) {
	info, err := os.Stat(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat file: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("%s: path is a directory", path)
	case !info.Mode().IsRegular():
		return false, fmt.Errorf("%s: not a regular file", path)
	}

	return true, nil
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	ok, err := isRegularFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("stat file %s: %w", path, fs.ErrNotExist)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// FindConfigFile searches for one of fileNames in the directory of
// targetPath and each of its parents. It returns an empty string when no
// file is found before the filesystem root.
func FindConfigFile(targetPath string, fileNames []string) (string, error) {
	var found string

	_, err := FindUp(targetPath, func(dir string) bool {
		for _, fileName := range fileNames {
			configPath := filepath.Join(dir, fileName)

			info, err := os.Stat(configPath)
			if err == nil && info.Mode().IsRegular() {
				found = configPath

				return true
			}
		}

		return false
	})
	if err != nil {
		return "", err
	}

	return found, nil
}

// FindUp calls match with the directory of targetPath, or targetPath itself
// when it is a directory, and then with each parent. It returns the first
// directory match accepts, or an empty string when none does.
func FindUp(targetPath string, match func(dir string) bool) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	// Files, including ones that do not exist yet, are searched from their
	// directory.
	searchDir := absPath

	info, err := os.Stat(absPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		searchDir = filepath.Dir(absPath)
	case err != nil:
		return "", fmt.Errorf("stat path: %w", err)
	case !info.IsDir():
		searchDir = filepath.Dir(absPath)
	}

	for {
		if match(searchDir) {
			return searchDir, nil
		}

		parent := filepath.Dir(searchDir)
		if parent == searchDir {
			return "", nil
		}

		searchDir = parent
	}
}

// WriteDefaultFile writes data to path, unless a file already exists there.
// With force, an existing file is renamed to "<name>.<unix nanos>.old" first.
// The kind names the file in logs and errors.
func WriteDefaultFile(path string, data []byte, force bool, kind string) error {
	exists, err := isRegularFile(path)
	if err != nil {
		return err
	}

	log := slog.With(slog.String("type", kind), slog.String("path", path))

	if exists && !force {
		log.Debug("file already exists, skipping write")

		return nil
	}

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists {
		backup := filepath.Join(dir, fmt.Sprintf("%s.%d.old", filepath.Base(path), time.Now().UnixNano()))
		log.Info("backing up existing file", slog.String("backup", backup))

		err = os.Rename(path, backup)
		if err != nil {
			return fmt.Errorf("back up %s file: %w", kind, err)
		}
	}

	log.Info("write default file")

	err = writeFileAtomic(path, data)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0o600)
	}

	closeErr := tmp.Close()
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
