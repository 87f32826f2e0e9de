// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// maxSQLIdentifierLen is the MySQL limit for schema and user names.
	maxSQLIdentifierLen = 64
)

var (
	// ErrInvalidServiceUnit is returned when a ServiceUnit value is empty or malformed.
	ErrInvalidServiceUnit = errors.New("invalid service unit")
	// ErrInvalidWebRootPath is returned when a WebRootPath value is not an absolute path.
	ErrInvalidWebRootPath = errors.New("invalid web root path")
	// ErrInvalidStateDirPath is returned when a StateDirPath value is not an absolute path.
	ErrInvalidStateDirPath = errors.New("invalid state dir path")
	// ErrInvalidIniFilePath is returned when an IniFilePath value is not an absolute path.
	ErrInvalidIniFilePath = errors.New("invalid ini file path")
	// ErrInvalidStepFilePath is returned when a StepFilePath value is whitespace-only.
	ErrInvalidStepFilePath = errors.New("invalid step file path")
	// ErrInvalidArchiveURL is returned when an ArchiveURL value is not an http(s) URL.
	ErrInvalidArchiveURL = errors.New("invalid archive URL")
	// ErrInvalidSQLIdentifier is returned when a SQLIdentifier value is not a safe MySQL name.
	ErrInvalidSQLIdentifier = errors.New("invalid SQL identifier")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidServicesConfig is the sentinel error wrapped by InvalidServicesConfigError.
	ErrInvalidServicesConfig = errors.New("invalid services config")
	// ErrInvalidDatabaseConfig is the sentinel error wrapped by InvalidDatabaseConfigError.
	ErrInvalidDatabaseConfig = errors.New("invalid database config")
	// ErrInvalidSourcesConfig is the sentinel error wrapped by InvalidSourcesConfigError.
	ErrInvalidSourcesConfig = errors.New("invalid sources config")
	// ErrInvalidPHPConfig is the sentinel error wrapped by InvalidPHPConfigError.
	ErrInvalidPHPConfig = errors.New("invalid php config")
	// ErrInvalidOwnerConfig is the sentinel error wrapped by InvalidOwnerConfigError.
	ErrInvalidOwnerConfig = errors.New("invalid owner config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// sqlIdentifierRe matches names safe to splice into CREATE DATABASE/USER
	// statements without quoting surprises.
	sqlIdentifierRe = regexp.MustCompile(`^[A-Za-z0-9$_]+$`)

	// phpSizeRe matches php.ini size/number values such as "64M", "256M" or "300".
	phpSizeRe = regexp.MustCompile(`^[0-9]+[KMG]?$`)
)

type (
	// ServiceUnit is a systemd unit name such as "mariadb" or "httpd".
	ServiceUnit string

	// InvalidServiceUnitError is returned when a ServiceUnit value is empty,
	// whitespace-only, or contains spaces. It wraps ErrInvalidServiceUnit.
	InvalidServiceUnitError struct {
		Value ServiceUnit
	}

	// WebRootPath is the absolute path the web server serves documents from.
	WebRootPath string

	// InvalidWebRootPathError is returned when a WebRootPath value is not an
	// absolute filesystem path. It wraps ErrInvalidWebRootPath.
	InvalidWebRootPathError struct {
		Value WebRootPath
	}

	// StateDirPath is the absolute path where provisioning receipts are kept.
	StateDirPath string

	// InvalidStateDirPathError is returned when a StateDirPath value is not an
	// absolute filesystem path. It wraps ErrInvalidStateDirPath.
	InvalidStateDirPathError struct {
		Value StateDirPath
	}

	// IniFilePath is the absolute path to the php.ini file to tune.
	IniFilePath string

	// InvalidIniFilePathError is returned when an IniFilePath value is not an
	// absolute filesystem path. It wraps ErrInvalidIniFilePath.
	InvalidIniFilePathError struct {
		Value IniFilePath
	}

	// StepFilePath is a path to a custom step file. The zero value ("") is
	// valid and means "discover wpsteps.cue in the working directory".
	StepFilePath string

	// InvalidStepFilePathError is returned when a StepFilePath value is
	// non-empty but whitespace-only. It wraps ErrInvalidStepFilePath.
	InvalidStepFilePathError struct {
		Value StepFilePath
	}

	// ArchiveURL is the download location of a release archive.
	ArchiveURL string

	// InvalidArchiveURLError is returned when an ArchiveURL value is not an
	// http or https URL. It wraps ErrInvalidArchiveURL.
	InvalidArchiveURLError struct {
		Value ArchiveURL
	}

	// SQLIdentifier is a MySQL schema or user name safe for DDL statements.
	SQLIdentifier string

	// InvalidSQLIdentifierError is returned when a SQLIdentifier value is
	// empty, too long, or contains characters outside [A-Za-z0-9$_].
	// It wraps ErrInvalidSQLIdentifier.
	InvalidSQLIdentifierError struct {
		Value SQLIdentifier
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidServicesConfigError collects field errors from a ServicesConfig.
	InvalidServicesConfigError struct {
		FieldErrors []error
	}

	// InvalidDatabaseConfigError collects field errors from a DatabaseConfig.
	InvalidDatabaseConfigError struct {
		FieldErrors []error
	}

	// InvalidSourcesConfigError collects field errors from a SourcesConfig.
	InvalidSourcesConfigError struct {
		FieldErrors []error
	}

	// InvalidPHPConfigError collects field errors from a PHPConfig.
	InvalidPHPConfigError struct {
		FieldErrors []error
	}

	// InvalidOwnerConfigError collects field errors from an OwnerConfig.
	InvalidOwnerConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError collects field errors from a UIConfig.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects field errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// WebRoot is where WordPress and phpMyAdmin are installed.
		WebRoot WebRootPath `json:"web_root" mapstructure:"web_root"`
		// StateDir is where provisioning receipts are written.
		StateDir StateDirPath `json:"state_dir" mapstructure:"state_dir"`
		// StepFile optionally points at a custom step file.
		StepFile StepFilePath `json:"step_file" mapstructure:"step_file"`
		// Services names the systemd units to manage.
		Services ServicesConfig `json:"services" mapstructure:"services"`
		// Packages lists the OS packages the stack needs.
		Packages PackagesConfig `json:"packages" mapstructure:"packages"`
		// Database configures the WordPress schema and its user.
		Database DatabaseConfig `json:"database" mapstructure:"database"`
		// Install toggles individual provisioning steps.
		Install InstallConfig `json:"install" mapstructure:"install"`
		// Sources locates the release archives to download.
		Sources SourcesConfig `json:"sources" mapstructure:"sources"`
		// PHP configures php.ini tuning.
		PHP PHPConfig `json:"php" mapstructure:"php"`
		// Owner is the user/group that owns installed files.
		Owner OwnerConfig `json:"owner" mapstructure:"owner"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ServicesConfig names the systemd units that make up the stack.
	ServicesConfig struct {
		// Database is the database engine unit (default "mariadb").
		Database ServiceUnit `json:"database" mapstructure:"database"`
		// WebServer is the web server unit (default "httpd").
		WebServer ServiceUnit `json:"web_server" mapstructure:"web_server"`
		// PHP is the PHP FastCGI unit (default "php-fpm").
		PHP ServiceUnit `json:"php" mapstructure:"php"`
	}

	// PackagesConfig lists the OS packages the stack needs.
	PackagesConfig struct {
		// Names are package names as known to the system package manager.
		Names []string `json:"names" mapstructure:"names"`
	}

	// DatabaseConfig configures the WordPress schema and its user.
	DatabaseConfig struct {
		// Name is the schema to create (default "wordpress").
		Name SQLIdentifier `json:"name" mapstructure:"name"`
		// User is the credentialed user to create (default "wordpress").
		User SQLIdentifier `json:"user" mapstructure:"user"`
		// Password is the user's password. When empty, wpstack prompts for
		// it on a TTY and fails otherwise.
		Password string `json:"password" mapstructure:"password"`
		// Host is where WordPress connects to the database (default "localhost").
		Host string `json:"host" mapstructure:"host"`
		// Port is the TCP port for client connections (default 3306).
		Port int `json:"port" mapstructure:"port"`
		// Socket is the unix socket used for admin connections as root.
		Socket string `json:"socket" mapstructure:"socket"`
		// AdminUser is the administrative account used for DDL (default "root").
		AdminUser string `json:"admin_user" mapstructure:"admin_user"`
	}

	// InstallConfig toggles individual provisioning steps.
	InstallConfig struct {
		// Packages enables the OS package step (default true).
		Packages bool `json:"packages" mapstructure:"packages"`
		// WordPress enables the WordPress install step (default true).
		WordPress bool `json:"wordpress" mapstructure:"wordpress"`
		// PHPMyAdmin enables the phpMyAdmin install step (default true).
		PHPMyAdmin bool `json:"phpmyadmin" mapstructure:"phpmyadmin"`
	}

	// SourcesConfig locates the release archives to download.
	SourcesConfig struct {
		// WordPress is the WordPress release archive URL.
		WordPress ArchiveURL `json:"wordpress" mapstructure:"wordpress"`
		// PHPMyAdmin is the phpMyAdmin release archive URL.
		PHPMyAdmin ArchiveURL `json:"phpmyadmin" mapstructure:"phpmyadmin"`
	}

	// PHPConfig configures php.ini tuning.
	PHPConfig struct {
		// IniPath is the php.ini file to edit (default "/etc/php.ini").
		IniPath IniFilePath `json:"ini_path" mapstructure:"ini_path"`
		// UploadMaxFilesize is the upload_max_filesize directive value.
		UploadMaxFilesize string `json:"upload_max_filesize" mapstructure:"upload_max_filesize"`
		// PostMaxSize is the post_max_size directive value.
		PostMaxSize string `json:"post_max_size" mapstructure:"post_max_size"`
		// MemoryLimit is the memory_limit directive value.
		MemoryLimit string `json:"memory_limit" mapstructure:"memory_limit"`
		// MaxExecutionTime is the max_execution_time directive value in seconds.
		MaxExecutionTime string `json:"max_execution_time" mapstructure:"max_execution_time"`
	}

	// OwnerConfig is the user/group that owns installed files.
	OwnerConfig struct {
		// User is the web server account (default "apache").
		User string `json:"user" mapstructure:"user"`
		// Group is the web server group (default "apache").
		Group string `json:"group" mapstructure:"group"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// NoSpinner disables the progress spinner even on a TTY.
		NoSpinner bool `json:"no_spinner" mapstructure:"no_spinner"`
	}
)

// String returns the string representation of the ServiceUnit.
func (u ServiceUnit) String() string { return string(u) }

// IsValid returns whether the ServiceUnit is a plausible systemd unit name.
// A valid unit must be non-empty and contain no whitespace.
func (u ServiceUnit) IsValid() (bool, []error) {
	s := string(u)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t") {
		return false, []error{&InvalidServiceUnitError{Value: u}}
	}
	return true, nil
}

// Error implements the error interface for InvalidServiceUnitError.
func (e *InvalidServiceUnitError) Error() string {
	return fmt.Sprintf("invalid service unit %q: must be non-empty without whitespace", e.Value)
}

// Unwrap returns ErrInvalidServiceUnit for errors.Is() compatibility.
func (e *InvalidServiceUnitError) Unwrap() error { return ErrInvalidServiceUnit }

// String returns the string representation of the WebRootPath.
func (p WebRootPath) String() string { return string(p) }

// IsValid returns whether the WebRootPath is an absolute path.
func (p WebRootPath) IsValid() (bool, []error) {
	if !filepath.IsAbs(string(p)) {
		return false, []error{&InvalidWebRootPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidWebRootPathError.
func (e *InvalidWebRootPathError) Error() string {
	return fmt.Sprintf("invalid web root path %q: must be absolute", e.Value)
}

// Unwrap returns ErrInvalidWebRootPath for errors.Is() compatibility.
func (e *InvalidWebRootPathError) Unwrap() error { return ErrInvalidWebRootPath }

// String returns the string representation of the StateDirPath.
func (p StateDirPath) String() string { return string(p) }

// IsValid returns whether the StateDirPath is an absolute path.
func (p StateDirPath) IsValid() (bool, []error) {
	if !filepath.IsAbs(string(p)) {
		return false, []error{&InvalidStateDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidStateDirPathError.
func (e *InvalidStateDirPathError) Error() string {
	return fmt.Sprintf("invalid state dir path %q: must be absolute", e.Value)
}

// Unwrap returns ErrInvalidStateDirPath for errors.Is() compatibility.
func (e *InvalidStateDirPathError) Unwrap() error { return ErrInvalidStateDirPath }

// String returns the string representation of the IniFilePath.
func (p IniFilePath) String() string { return string(p) }

// IsValid returns whether the IniFilePath is an absolute path.
func (p IniFilePath) IsValid() (bool, []error) {
	if !filepath.IsAbs(string(p)) {
		return false, []error{&InvalidIniFilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidIniFilePathError.
func (e *InvalidIniFilePathError) Error() string {
	return fmt.Sprintf("invalid ini file path %q: must be absolute", e.Value)
}

// Unwrap returns ErrInvalidIniFilePath for errors.Is() compatibility.
func (e *InvalidIniFilePathError) Unwrap() error { return ErrInvalidIniFilePath }

// String returns the string representation of the StepFilePath.
func (p StepFilePath) String() string { return string(p) }

// IsValid returns whether the StepFilePath is valid.
// The zero value ("") is valid and means "discover wpsteps.cue".
// Non-zero values must not be whitespace-only.
func (p StepFilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidStepFilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidStepFilePathError.
func (e *InvalidStepFilePathError) Error() string {
	return fmt.Sprintf("invalid step file path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidStepFilePath for errors.Is() compatibility.
func (e *InvalidStepFilePathError) Unwrap() error { return ErrInvalidStepFilePath }

// String returns the string representation of the ArchiveURL.
func (u ArchiveURL) String() string { return string(u) }

// IsValid returns whether the ArchiveURL is an http or https URL.
func (u ArchiveURL) IsValid() (bool, []error) {
	s := string(u)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false, []error{&InvalidArchiveURLError{Value: u}}
	}
	return true, nil
}

// Error implements the error interface for InvalidArchiveURLError.
func (e *InvalidArchiveURLError) Error() string {
	return fmt.Sprintf("invalid archive URL %q: must start with http:// or https://", e.Value)
}

// Unwrap returns ErrInvalidArchiveURL for errors.Is() compatibility.
func (e *InvalidArchiveURLError) Unwrap() error { return ErrInvalidArchiveURL }

// String returns the string representation of the SQLIdentifier.
func (id SQLIdentifier) String() string { return string(id) }

// IsValid returns whether the SQLIdentifier is a safe MySQL name:
// non-empty, at most 64 characters, containing only [A-Za-z0-9$_].
func (id SQLIdentifier) IsValid() (bool, []error) {
	s := string(id)
	if s == "" || len(s) > maxSQLIdentifierLen || !sqlIdentifierRe.MatchString(s) {
		return false, []error{&InvalidSQLIdentifierError{Value: id}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSQLIdentifierError.
func (e *InvalidSQLIdentifierError) Error() string {
	return fmt.Sprintf("invalid SQL identifier %q: must match [A-Za-z0-9$_]{1,%d}", e.Value, maxSQLIdentifierLen)
}

// Unwrap returns ErrInvalidSQLIdentifier for errors.Is() compatibility.
func (e *InvalidSQLIdentifierError) Unwrap() error { return ErrInvalidSQLIdentifier }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the ServicesConfig has valid fields.
// It delegates to each unit's IsValid().
func (c ServicesConfig) IsValid() (bool, []error) {
	var errs []error
	for _, u := range []ServiceUnit{c.Database, c.WebServer, c.PHP} {
		if valid, fieldErrs := u.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidServicesConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidServicesConfigError.
func (e *InvalidServicesConfigError) Error() string {
	return fmt.Sprintf("invalid services config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidServicesConfig for errors.Is() compatibility.
func (e *InvalidServicesConfigError) Unwrap() error { return ErrInvalidServicesConfig }

// IsValid returns whether the DatabaseConfig has valid fields.
// Password is intentionally not validated here: an empty password is
// resolved interactively at run time.
func (c DatabaseConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Name.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.User.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, fmt.Errorf("database host must be non-empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("database port %d out of range 1-65535", c.Port))
	}
	if strings.TrimSpace(c.AdminUser) == "" {
		errs = append(errs, fmt.Errorf("database admin user must be non-empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDatabaseConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDatabaseConfigError.
func (e *InvalidDatabaseConfigError) Error() string {
	return fmt.Sprintf("invalid database config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidDatabaseConfig for errors.Is() compatibility.
func (e *InvalidDatabaseConfigError) Unwrap() error { return ErrInvalidDatabaseConfig }

// IsValid returns whether the SourcesConfig has valid fields.
func (c SourcesConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.WordPress.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.PHPMyAdmin.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSourcesConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSourcesConfigError.
func (e *InvalidSourcesConfigError) Error() string {
	return fmt.Sprintf("invalid sources config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSourcesConfig for errors.Is() compatibility.
func (e *InvalidSourcesConfigError) Unwrap() error { return ErrInvalidSourcesConfig }

// IsValid returns whether the PHPConfig has valid fields.
// Directive values must look like php.ini sizes ("64M") or plain numbers.
func (c PHPConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.IniPath.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	directives := map[string]string{
		"upload_max_filesize": c.UploadMaxFilesize,
		"post_max_size":       c.PostMaxSize,
		"memory_limit":        c.MemoryLimit,
		"max_execution_time":  c.MaxExecutionTime,
	}
	for name, value := range directives {
		if !phpSizeRe.MatchString(value) {
			errs = append(errs, fmt.Errorf("php directive %s has invalid value %q", name, value))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidPHPConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPHPConfigError.
func (e *InvalidPHPConfigError) Error() string {
	return fmt.Sprintf("invalid php config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidPHPConfig for errors.Is() compatibility.
func (e *InvalidPHPConfigError) Unwrap() error { return ErrInvalidPHPConfig }

// IsValid returns whether the OwnerConfig has valid fields.
func (c OwnerConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, fmt.Errorf("owner user must be non-empty"))
	}
	if strings.TrimSpace(c.Group) == "" {
		errs = append(errs, fmt.Errorf("owner group must be non-empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidOwnerConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidOwnerConfigError.
func (e *InvalidOwnerConfigError) Error() string {
	return fmt.Sprintf("invalid owner config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidOwnerConfig for errors.Is() compatibility.
func (e *InvalidOwnerConfigError) Unwrap() error { return ErrInvalidOwnerConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields. It delegates to the
// path newtypes and each sub-config's IsValid(). Install has only bool
// fields and needs no validation; Packages may legitimately be empty.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.WebRoot.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.StateDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.StepFile.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Services.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Database.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Sources.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.PHP.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Owner.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration. The defaults target a
// RHEL-family host (Amazon Linux, Fedora, Rocky): dnf packages, httpd,
// and the apache user. Debian-family hosts override via config file.
func DefaultConfig() *Config {
	return &Config{
		WebRoot:  "/var/www/html",
		StateDir: "/var/lib/wpstack",
		StepFile: "",
		Services: ServicesConfig{
			Database:  "mariadb",
			WebServer: "httpd",
			PHP:       "php-fpm",
		},
		Packages: PackagesConfig{
			Names: []string{
				"httpd",
				"mariadb105-server",
				"php",
				"php-fpm",
				"php-mysqlnd",
				"php-gd",
				"php-mbstring",
				"php-xml",
			},
		},
		Database: DatabaseConfig{
			Name:      "wordpress",
			User:      "wordpress",
			Password:  "", // resolved interactively when empty
			Host:      "localhost",
			Port:      3306,
			Socket:    "/var/lib/mysql/mysql.sock",
			AdminUser: "root",
		},
		Install: InstallConfig{
			Packages:   true,
			WordPress:  true,
			PHPMyAdmin: true,
		},
		Sources: SourcesConfig{
			WordPress:  "https://wordpress.org/latest.tar.gz",
			PHPMyAdmin: "https://www.phpmyadmin.net/downloads/phpMyAdmin-latest-all-languages.tar.gz",
		},
		PHP: PHPConfig{
			IniPath:           "/etc/php.ini",
			UploadMaxFilesize: "64M",
			PostMaxSize:       "64M",
			MemoryLimit:       "256M",
			MaxExecutionTime:  "300",
		},
		Owner: OwnerConfig{
			User:  "apache",
			Group: "apache",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			NoSpinner:   false,
		},
	}
}
