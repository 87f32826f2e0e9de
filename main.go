// SPDX-License-Identifier: MPL-2.0

// wpstack provisions a local WordPress development environment:
// it starts the required system services, ensures the database and
// its user exist, installs WordPress and phpMyAdmin under the web
// root, tunes PHP, and restarts the web server. Every step checks
// for its own completion marker first, so re-running is always safe.
package main

import cmd "github.com/danielcregg/aws2023-wp/cmd/wpstack"

func main() {
	cmd.Execute()
}
