// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	RootRequiredId
	PackageManagerNotFoundId
	ServiceStartFailedId
	DatabaseUnreachableId
	DownloadFailedId
	ArchiveInvalidId
	WebRootNotWritableId
	StepFileParseErrorId
	StepFailedId
	PHPIniNotFoundId
)

type MarkdownMsg string

type HttpLink string

// Renderer turns markdown into styled terminal output. glamour.Render has
// this exact signature; tests substitute a plain passthrough.
type Renderer func(in string, stylePath string) (string, error)

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links shown under "See also"
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "\n- " + string(link)
		}
		for _, link := range i.extLinks {
			extraMd += "\n- " + string(link)
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render Renderer = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the wpstack configuration file.

## Configuration file locations (in order of precedence):
1. Path given via --config
2. ~/.config/wpstack/config.cue
3. ./wpstack.cue
4. /etc/wpstack/config.cue

## Things you can try:
- Create a default configuration:
~~~
$ wpstack config init
~~~

- Inspect the effective configuration, including environment overrides:
~~~
$ wpstack config show
~~~

- Check the CUE syntax at the line/column reported above
- Remove the config file to fall back to the Amazon Linux 2023 defaults

## Example configuration:
~~~cue
web_root: "/var/www/html"

database: {
	name: "wordpress"
	user: "wordpress"
}

php: {
	memory_limit: "256M"
}
~~~`,
	}

	rootRequiredIssue = &Issue{
		id: RootRequiredId,
		mdMsg: `
# Root privileges required!

Provisioning installs packages, manages systemd units, and writes under
the web root. All of that needs root.

## Things you can try:
- Re-run under sudo:
~~~
$ sudo wpstack up
~~~

- Preview the plan without touching the system (no root needed):
~~~
$ wpstack up --dry-run
~~~`,
	}

	packageManagerNotFoundIssue = &Issue{
		id: PackageManagerNotFoundId,
		mdMsg: `
# No supported package manager found!

We looked for dnf, yum and apt-get on PATH but found none of them.

## Supported platforms:
- **Amazon Linux 2023 / Fedora / RHEL 8+**: dnf
- **Older RHEL / CentOS**: yum
- **Debian / Ubuntu**: apt-get

## Things you can try:
- Run wpstack on one of the supported distributions
- Check that the sbin directories are on PATH when running via sudo:
~~~
$ sudo sh -c 'echo $PATH'
~~~`,
	}

	serviceStartFailedIssue = &Issue{
		id: ServiceStartFailedId,
		mdMsg: `
# Service failed to start!

systemctl could not enable or restart one of the managed units.

## Managed units (defaults):
- **httpd**: Apache web server
- **mariadb**: database server
- **php-fpm**: PHP FastCGI process manager

## Things you can try:
- Inspect the unit status and its recent log:
~~~
$ systemctl status httpd
$ journalctl -xeu httpd
~~~

- Check for another process already bound to port 80:
~~~
$ sudo ss -tlnp 'sport = :80'
~~~

- Fix the underlying problem, then re-run:
~~~
$ sudo wpstack up
~~~`,
	}

	databaseUnreachableIssue = &Issue{
		id: DatabaseUnreachableId,
		mdMsg: `
# Cannot reach the database server!

MariaDB did not accept connections within the wait window.

## Things you can try:
- Check that the unit is actually running:
~~~
$ systemctl status mariadb
~~~

- Try connecting by hand over the admin socket:
~~~
$ sudo mariadb -e 'SELECT 1'
~~~

- A freshly installed server initializes its data directory on first
  start, which can take a while on small instances. Re-run once it
  settles:
~~~
$ sudo wpstack up
~~~`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed!

Could not fetch a release archive.

## Things you can try:
- Check connectivity from this host:
~~~
$ curl -I https://wordpress.org/latest.tar.gz
~~~

- Behind a proxy, export the standard variables before running:
~~~
$ export HTTPS_PROXY=http://proxy.example.com:3128
~~~

- Point the sources at an internal mirror:
~~~cue
sources: {
	wordpress:  "https://mirror.example.com/wordpress-latest.tar.gz"
	phpmyadmin: "https://mirror.example.com/phpMyAdmin-latest.tar.gz"
}
~~~`,
	}

	archiveInvalidIssue = &Issue{
		id: ArchiveInvalidId,
		mdMsg: `
# Release archive looks invalid!

The downloaded archive could not be unpacked safely.

## Common causes:
- Truncated download (network hiccup, disk full)
- A mirror serving an HTML error page instead of a tarball
- Archive entries trying to escape the extraction directory

## Things you can try:
- Re-run to download a fresh copy:
~~~
$ sudo wpstack up
~~~

- Verify the configured URL really serves a gzipped tarball:
~~~
$ curl -sI https://wordpress.org/latest.tar.gz | grep -i content-type
~~~

- Check free disk space:
~~~
$ df -h /tmp /var/www
~~~`,
	}

	webRootNotWritableIssue = &Issue{
		id: WebRootNotWritableId,
		mdMsg: `
# Web root is not writable!

Could not create or write files under the web root directory.

## Things you can try:
- Run as root:
~~~
$ sudo wpstack up
~~~

- Check the directory exists and is on a writable filesystem:
~~~
$ ls -ld /var/www/html
$ mount | grep /var/www
~~~

- If you changed web_root in your configuration, double-check the path:
~~~cue
web_root: "/srv/www/site"
~~~`,
	}

	stepFileParseErrorIssue = &Issue{
		id: StepFileParseErrorId,
		mdMsg: `
# Failed to parse the custom steps file!

The custom steps file contains CUE syntax errors or invalid step
definitions.

## Things you can try:
- Check the error message above for the specific line/column
- Each step needs a unique name and a script:
~~~cue
steps: [
	{
		name: "install-wp-cli"
		creates: "/usr/local/bin/wp"
		script: """
			curl -sSLo /usr/local/bin/wp \
			  https://raw.githubusercontent.com/wp-cli/builds/gh-pages/phar/wp-cli.phar
			chmod +x /usr/local/bin/wp
			"""
	},
]
~~~

- Check the whole file in one pass without applying anything:
~~~
$ wpstack validate
~~~`,
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# Provisioning step failed!

A step reported an error, so the run stopped before any later step.
Steps that already completed keep their changes; re-running resumes at
the first unsatisfied step.

## Things you can try:
- Re-run with verbose output to see the exact command that failed:
~~~
$ sudo wpstack --verbose up
~~~

- Inspect what is and is not provisioned on this host:
~~~
$ wpstack status
~~~`,
	}

	phpIniNotFoundIssue = &Issue{
		id: PHPIniNotFoundId,
		mdMsg: `
# php.ini not found!

The PHP configuration file was not at the expected location, so the
tuning step cannot edit it.

## Default locations:
- **Amazon Linux 2023 / RHEL**: /etc/php.ini
- **Debian / Ubuntu**: /etc/php/<version>/apache2/php.ini

## Things you can try:
- Ask PHP where its ini files live:
~~~
$ php --ini
~~~

- Point wpstack at the right file:
~~~cue
php: {
	ini_path: "/etc/php/8.2/fpm/php.ini"
}
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		rootRequiredIssue.Id():           rootRequiredIssue,
		packageManagerNotFoundIssue.Id(): packageManagerNotFoundIssue,
		serviceStartFailedIssue.Id():     serviceStartFailedIssue,
		databaseUnreachableIssue.Id():    databaseUnreachableIssue,
		downloadFailedIssue.Id():         downloadFailedIssue,
		archiveInvalidIssue.Id():         archiveInvalidIssue,
		webRootNotWritableIssue.Id():     webRootNotWritableIssue,
		stepFileParseErrorIssue.Id():     stepFileParseErrorIssue,
		stepFailedIssue.Id():             stepFailedIssue,
		phpIniNotFoundIssue.Id():         phpIniNotFoundIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
