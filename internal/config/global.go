// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

var (
	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string

	// configFilePathOverride forces Load to read a specific file,
	// set from the --config flag.
	configFilePathOverride string

	cacheMu    sync.Mutex
	cachedCfg  *Config
	cachedPath string
	loaded     bool
)

// Load returns the application configuration, loading and caching it on
// first use. Subsequent calls return the cached value until Reset is called
// or an override changes.
func Load() (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if loaded {
		return cachedCfg, nil
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: configFilePathOverride,
		ConfigDirPath:  configDirOverride,
	})
	if err != nil {
		return nil, err
	}

	cachedCfg, cachedPath, loaded = cfg, path, true
	return cfg, nil
}

// LoadedConfigPath returns the path of the config file the cached
// configuration came from, or "" when running on built-in defaults.
func LoadedConfigPath() string {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	return cachedPath
}

// SetConfigFilePathOverride forces Load to read the given file exclusively.
// Any cached configuration is invalidated.
func SetConfigFilePathOverride(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configFilePathOverride = path
	invalidateLocked()
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configDirOverride = dir
	invalidateLocked()
}

// Reset clears overrides and the cache. Call from test cleanup to restore defaults.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	configDirOverride = ""
	configFilePathOverride = ""
	invalidateLocked()
}

// invalidateLocked drops the cached configuration. Callers must hold cacheMu.
func invalidateLocked() {
	cachedCfg = nil
	cachedPath = ""
	loaded = false
}
