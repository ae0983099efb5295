package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalConfigName is looked up in the working directory first.
const LocalConfigName = ".krark.yaml"

// DefaultConfigPaths returns the search order for config files.
func DefaultConfigPaths() []string {
	paths := []string{LocalConfigName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "krark", "config.yaml"))
	}
	return paths
}

// Resolve loads the config from the given explicit path, or searches the
// default locations. An explicit path must exist; when nothing is found in
// the default locations the defaults are returned. The second return value is
// the file that was loaded, if any.
func Resolve(explicit string) (*Config, string, error) {
	path, err := findConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

func findConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}
