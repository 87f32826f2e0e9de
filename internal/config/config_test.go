// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielcregg/aws2023-wp/internal/testutil"
)

func TestLoadDefaultsWhenNoConfigFile(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.WebRoot != "/var/www/html" {
		t.Errorf("Expected default web root /var/www/html, got %q", cfg.WebRoot)
	}
	if cfg.Services.Database != "mariadb" {
		t.Errorf("Expected default database unit mariadb, got %q", cfg.Services.Database)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Expected default port 3306, got %d", cfg.Database.Port)
	}
	if !cfg.Install.WordPress || !cfg.Install.PHPMyAdmin || !cfg.Install.Packages {
		t.Error("Expected all install toggles to default to true")
	}
	if LoadedConfigPath() != "" {
		t.Errorf("Expected no resolved config path, got %q", LoadedConfigPath())
	}
}

func TestLoadCachesUntilReset(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	first, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first != second {
		t.Error("Expected Load to return the cached config instance")
	}
}

func TestLoadMergesConfigFileOverDefaults(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	content := `
web_root: "/srv/www"

services: {
	web_server: "apache2"
}

database: {
	name: "blog"
	port: 3307
}
`
	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), content)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.WebRoot != "/srv/www" {
		t.Errorf("Expected web root from file, got %q", cfg.WebRoot)
	}
	if cfg.Services.WebServer != "apache2" {
		t.Errorf("Expected web server unit from file, got %q", cfg.Services.WebServer)
	}
	if cfg.Database.Name != "blog" {
		t.Errorf("Expected database name from file, got %q", cfg.Database.Name)
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Expected database port from file, got %d", cfg.Database.Port)
	}
	// Untouched values keep their defaults
	if cfg.Services.Database != "mariadb" {
		t.Errorf("Expected default database unit, got %q", cfg.Services.Database)
	}
	if cfg.Database.User != "wordpress" {
		t.Errorf("Expected default database user, got %q", cfg.Database.User)
	}
	if LoadedConfigPath() != filepath.Join(cfgDir, "config.cue") {
		t.Errorf("Expected resolved path to name the config file, got %q", LoadedConfigPath())
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), `webroot: "/srv/www"`)

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error for an unknown config key")
	}
}

func TestLoadRejectsOutOfRangeValue(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), `database: port: 70000`)

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error for an out-of-range port")
	}
}

func TestLoadRejectsRelativeWebRoot(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), `web_root: "www/html"`)

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error for a relative web root")
	}
}

func TestLoadExplicitConfigFileNotFound(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigFilePathOverride(filepath.Join(t.TempDir(), "missing.cue"))

	_, err := Load()
	if err == nil {
		t.Fatal("Expected an error for a missing explicit config file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Expected a not-found message, got %v", err)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, path, `state_dir: "/tmp/wpstack-test-state"`)
	SetConfigFilePathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.StateDir != "/tmp/wpstack-test-state" {
		t.Errorf("Expected state dir from explicit file, got %q", cfg.StateDir)
	}
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), `database: user: "fromfile"`)
	t.Cleanup(testutil.MustSetenv(t, "WPSTACK_DATABASE_USER", "fromenv"))
	t.Cleanup(testutil.MustSetenv(t, "WPSTACK_WEB_ROOT", "/srv/env"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Database.User != "fromenv" {
		t.Errorf("Expected env to override file value, got %q", cfg.Database.User)
	}
	if cfg.WebRoot != "/srv/env" {
		t.Errorf("Expected env to override default, got %q", cfg.WebRoot)
	}
}

func TestProviderLoadIsolatedFromGlobals(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `owner: {user: "www-data", group: "www-data"}`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Owner.User != "www-data" {
		t.Errorf("Expected owner user from file, got %q", cfg.Owner.User)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	defaults := DefaultConfig()
	testutil.MustWriteFile(t, filepath.Join(cfgDir, "config.cue"), GenerateCUE(defaults))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected generated CUE to load cleanly, got %v", err)
	}
	if cfg.WebRoot != defaults.WebRoot {
		t.Errorf("Expected round-tripped web root %q, got %q", defaults.WebRoot, cfg.WebRoot)
	}
	if cfg.Database.Port != defaults.Database.Port {
		t.Errorf("Expected round-tripped port %d, got %d", defaults.Database.Port, cfg.Database.Port)
	}
	if len(cfg.Packages.Names) != len(defaults.Packages.Names) {
		t.Errorf("Expected %d packages, got %d", len(defaults.Packages.Names), len(cfg.Packages.Names))
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Cleanup(Reset)
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file to exist, got %v", err)
	}

	// A second call must not overwrite the existing file.
	testutil.MustWriteFile(t, path, `web_root: "/srv/custom"`)
	again, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if again != path {
		t.Errorf("Expected the same path, got %q", again)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected readable config file, got %v", err)
	}
	if !strings.Contains(string(data), "/srv/custom") {
		t.Error("Expected existing config file to be left untouched")
	}
}
