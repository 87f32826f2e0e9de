// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/danielcregg/aws2023-wp/internal/fsutil"
)

const (
	wpConfigSample = "wp-config-sample.php"
	wpConfigFile   = "wp-config.php"

	// saltPlaceholder is the phrase WordPress ships in every sample salt
	// define. Each occurrence is replaced with a distinct generated value.
	saltPlaceholder = "put your unique phrase here"
	saltLength      = 64

	// saltAlphabet excludes quotes, backslashes, and backticks so generated
	// values drop into single-quoted PHP strings unescaped.
	saltAlphabet = "abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789" +
		"!@#$%^&*()-_[]{}<>~+=,.;:/?|"
)

// dbHostRe matches the DB_HOST define in wp-config-sample.php regardless of
// spacing inside the call.
var dbHostRe = regexp.MustCompile(`define\(\s*'DB_HOST',\s*'[^']*'\s*\)`)

// wpConfigValues carries the substitutions rendered into wp-config.php.
type wpConfigValues struct {
	DBName     string
	DBUser     string
	DBPassword string
	DBHost     string
}

// writeWPConfig renders wp-config.php from wp-config-sample.php in dir,
// filling in database credentials and fresh authentication salts.
func writeWPConfig(dir string, v wpConfigValues) error {
	samplePath := filepath.Join(dir, wpConfigSample)
	data, err := os.ReadFile(samplePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", samplePath, err)
	}

	content := string(data)
	content = strings.Replace(content, "database_name_here", phpEscape(v.DBName), 1)
	content = strings.Replace(content, "username_here", phpEscape(v.DBUser), 1)
	content = strings.Replace(content, "password_here", phpEscape(v.DBPassword), 1)
	content = dbHostRe.ReplaceAllString(content,
		"define( 'DB_HOST', '"+phpEscape(v.DBHost)+"' )")

	content, err = fillSalts(content)
	if err != nil {
		return err
	}

	target := filepath.Join(dir, wpConfigFile)
	if err := fsutil.WriteFileAtomic(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// fillSalts replaces every sample salt phrase with a distinct random value.
func fillSalts(content string) (string, error) {
	for strings.Contains(content, saltPlaceholder) {
		salt, err := randomString(saltAlphabet, saltLength)
		if err != nil {
			return "", err
		}
		content = strings.Replace(content, saltPlaceholder, salt, 1)
	}
	return content, nil
}

// phpEscape makes s safe inside a single-quoted PHP string.
func phpEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
