// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "wpstack"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is the project-local config file looked up in the
	// working directory.
	LocalConfigFileName = "wpstack.cue"
	// SystemConfigDir is the machine-wide config location, fitting for a
	// tool that is usually run as root.
	SystemConfigDir = "/etc/wpstack"
	// EnvPrefix is the prefix for environment variable overrides, e.g.
	// WPSTACK_DATABASE_PASSWORD for database.password.
	EnvPrefix = "WPSTACK"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the wpstack configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	// Environment overrides: WPSTACK_DATABASE_PASSWORD -> database.password
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'wpstack config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", configFileIssue(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		// Lookup order: per-user config dir, working directory, then /etc.
		// The first file found wins; absence of all of them is not an error.
		candidates := []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			LocalConfigFileName,
			filepath.Join(SystemConfigDir, ConfigFileName+"."+ConfigFileExt),
		}
		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if err := loadCUEIntoViper(v, path); err != nil {
				return nil, "", configFileIssue(path, err)
			}
			resolvedPath = path
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Constraints the CUE schema cannot express (cross-field rules, port
	// ranges on env-injected values) are enforced on the decoded struct.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(displayPath(resolvedPath)).
			WithSuggestion("Check the reported fields against 'wpstack config show'").
			WithSuggestion("Unset WPSTACK_* environment variables that may override file values").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// setDefaults seeds viper with the compiled-in defaults so that partial
// config files and env overrides merge on top of a complete configuration.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("web_root", defaults.WebRoot)
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("step_file", defaults.StepFile)
	v.SetDefault("services.database", defaults.Services.Database)
	v.SetDefault("services.web_server", defaults.Services.WebServer)
	v.SetDefault("services.php", defaults.Services.PHP)
	v.SetDefault("packages.names", defaults.Packages.Names)
	v.SetDefault("database.name", defaults.Database.Name)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.socket", defaults.Database.Socket)
	v.SetDefault("database.admin_user", defaults.Database.AdminUser)
	v.SetDefault("install.packages", defaults.Install.Packages)
	v.SetDefault("install.wordpress", defaults.Install.WordPress)
	v.SetDefault("install.phpmyadmin", defaults.Install.PHPMyAdmin)
	v.SetDefault("sources.wordpress", defaults.Sources.WordPress)
	v.SetDefault("sources.phpmyadmin", defaults.Sources.PHPMyAdmin)
	v.SetDefault("php.ini_path", defaults.PHP.IniPath)
	v.SetDefault("php.upload_max_filesize", defaults.PHP.UploadMaxFilesize)
	v.SetDefault("php.post_max_size", defaults.PHP.PostMaxSize)
	v.SetDefault("php.memory_limit", defaults.PHP.MemoryLimit)
	v.SetDefault("php.max_execution_time", defaults.PHP.MaxExecutionTime)
	v.SetDefault("owner.user", defaults.Owner.User)
	v.SetDefault("owner.group", defaults.Owner.Group)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.no_spinner", defaults.UI.NoSpinner)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// configFileIssue wraps a config file parse error with actionable guidance.
func configFileIssue(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'wpstack config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// displayPath names the config source for error messages.
func displayPath(resolvedPath string) string {
	if resolvedPath == "" {
		return "built-in defaults"
	}
	return resolvedPath
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE parsing instead of cueutil.ParseAndDecode because:
// 1. Config decodes to map[string]any (not a struct) for Viper integration
// 2. Uses Concrete(false) because config fields are optional
// 3. Needs to merge into Viper's config map, not return a struct
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	// Unify with schema to validate against the #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a commented starter config file if one does not
// already exist, and returns its path.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil // File exists
	}

	cueContent := GenerateCUE(DefaultConfig())

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// wpstack configuration file\n")
	sb.WriteString("// Values omitted here fall back to built-in defaults;\n")
	sb.WriteString("// WPSTACK_* environment variables override both.\n\n")

	sb.WriteString(fmt.Sprintf("web_root:  %q\n", cfg.WebRoot))
	sb.WriteString(fmt.Sprintf("state_dir: %q\n", cfg.StateDir))
	if cfg.StepFile != "" {
		sb.WriteString(fmt.Sprintf("step_file: %q\n", cfg.StepFile))
	}

	sb.WriteString("\nservices: {\n")
	sb.WriteString(fmt.Sprintf("\tdatabase:   %q\n", cfg.Services.Database))
	sb.WriteString(fmt.Sprintf("\tweb_server: %q\n", cfg.Services.WebServer))
	sb.WriteString(fmt.Sprintf("\tphp:        %q\n", cfg.Services.PHP))
	sb.WriteString("}\n")

	if len(cfg.Packages.Names) > 0 {
		sb.WriteString("\npackages: names: [\n")
		for _, name := range cfg.Packages.Names {
			sb.WriteString(fmt.Sprintf("\t%q,\n", name))
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\ndatabase: {\n")
	sb.WriteString(fmt.Sprintf("\tname:       %q\n", cfg.Database.Name))
	sb.WriteString(fmt.Sprintf("\tuser:       %q\n", cfg.Database.User))
	sb.WriteString("\t// password: set via WPSTACK_DATABASE_PASSWORD or prompted at run time\n")
	if cfg.Database.Password != "" {
		sb.WriteString(fmt.Sprintf("\tpassword:   %q\n", cfg.Database.Password))
	}
	sb.WriteString(fmt.Sprintf("\thost:       %q\n", cfg.Database.Host))
	sb.WriteString(fmt.Sprintf("\tport:       %d\n", cfg.Database.Port))
	sb.WriteString(fmt.Sprintf("\tsocket:     %q\n", cfg.Database.Socket))
	sb.WriteString(fmt.Sprintf("\tadmin_user: %q\n", cfg.Database.AdminUser))
	sb.WriteString("}\n")

	sb.WriteString("\ninstall: {\n")
	sb.WriteString(fmt.Sprintf("\tpackages:   %v\n", cfg.Install.Packages))
	sb.WriteString(fmt.Sprintf("\twordpress:  %v\n", cfg.Install.WordPress))
	sb.WriteString(fmt.Sprintf("\tphpmyadmin: %v\n", cfg.Install.PHPMyAdmin))
	sb.WriteString("}\n")

	sb.WriteString("\nsources: {\n")
	sb.WriteString(fmt.Sprintf("\twordpress:  %q\n", cfg.Sources.WordPress))
	sb.WriteString(fmt.Sprintf("\tphpmyadmin: %q\n", cfg.Sources.PHPMyAdmin))
	sb.WriteString("}\n")

	sb.WriteString("\nphp: {\n")
	sb.WriteString(fmt.Sprintf("\tini_path:            %q\n", cfg.PHP.IniPath))
	sb.WriteString(fmt.Sprintf("\tupload_max_filesize: %q\n", cfg.PHP.UploadMaxFilesize))
	sb.WriteString(fmt.Sprintf("\tpost_max_size:       %q\n", cfg.PHP.PostMaxSize))
	sb.WriteString(fmt.Sprintf("\tmemory_limit:        %q\n", cfg.PHP.MemoryLimit))
	sb.WriteString(fmt.Sprintf("\tmax_execution_time:  %q\n", cfg.PHP.MaxExecutionTime))
	sb.WriteString("}\n")

	sb.WriteString("\nowner: {\n")
	sb.WriteString(fmt.Sprintf("\tuser:  %q\n", cfg.Owner.User))
	sb.WriteString(fmt.Sprintf("\tgroup: %q\n", cfg.Owner.Group))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose:      %v\n", cfg.UI.Verbose))
	sb.WriteString(fmt.Sprintf("\tno_spinner:   %v\n", cfg.UI.NoSpinner))
	sb.WriteString("}\n")

	return sb.String()
}
