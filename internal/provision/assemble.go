// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/execx"
	"github.com/danielcregg/aws2023-wp/internal/fetch"
	"github.com/danielcregg/aws2023-wp/internal/issue"
	"github.com/danielcregg/aws2023-wp/internal/service"
	"github.com/danielcregg/aws2023-wp/internal/tui"
	"github.com/danielcregg/aws2023-wp/pkg/stepfile"
)

// Deps carries the external collaborators Assemble wires into steps. Zero
// fields get production defaults; tests swap in fakes.
type Deps struct {
	// Exec runs external commands. Defaults to execx.NewOSRunner().
	Exec execx.Runner

	// Fetcher downloads release archives. Defaults to fetch.NewClient().
	Fetcher *fetch.Client

	// Prompt asks for the database password when the config leaves it
	// empty. Defaults to a no-echo terminal prompt.
	Prompt func() (string, error)

	// Logger receives run progress. Nil means silent.
	Logger *log.Logger

	// Spinner animates steps while they apply. Nil means no spinner.
	Spinner *tui.Spinner
}

// Assemble builds the ordered step list for cfg and returns a Runner ready
// to Run or Plan. Step order is fixed: packages, services, database,
// wordpress, phpmyadmin, phpini, custom steps from the step file, and
// finally the web server restart. Install toggles drop their step from the
// list entirely.
func Assemble(cfg *config.Config, deps Deps) (*Runner, error) {
	if deps.Exec == nil {
		deps.Exec = execx.NewOSRunner()
	}
	if deps.Fetcher == nil {
		deps.Fetcher = fetch.NewClient()
	}
	if deps.Prompt == nil {
		user := cfg.Database.User.String()
		deps.Prompt = func() (string, error) {
			return tui.PromptNewPassword(fmt.Sprintf("Password for database user %s: ", user))
		}
	}

	svc := service.NewManager(deps.Exec)
	if !svc.Available() {
		return nil, issue.NewErrorContext().
			WithOperation("locate service manager").
			WithResource("systemctl").
			WithSuggestion("wpstack manages services through systemd and needs systemctl on PATH").
			WithSuggestion("On non-systemd hosts, start the services manually and use a step file for the rest").
			BuildError()
	}

	password := NewPasswordSource(cfg.Database.Password, deps.Prompt)
	tally := NewTally()

	var steps []Step
	if cfg.Install.Packages {
		steps = append(steps, NewPackagesStep(deps.Exec, cfg.Packages.Names))
	}
	steps = append(steps, NewServicesStep(svc, []string{
		cfg.Services.Database.String(),
		cfg.Services.WebServer.String(),
		cfg.Services.PHP.String(),
	}))
	steps = append(steps, NewDatabaseStep(cfg.Database, password, nil))
	if cfg.Install.WordPress {
		steps = append(steps, NewWordPressStep(
			deps.Fetcher, cfg.Sources.WordPress.String(), cfg.WebRoot.String(),
			cfg.Database, cfg.Owner, password,
		))
	}
	if cfg.Install.PHPMyAdmin {
		steps = append(steps, NewPHPMyAdminStep(
			deps.Fetcher, cfg.Sources.PHPMyAdmin.String(), cfg.WebRoot.String(),
			cfg.Database.Host, cfg.Owner,
		))
	}
	steps = append(steps, NewPHPIniStep(cfg.PHP))

	custom, err := customSteps(cfg.StepFile.String())
	if err != nil {
		return nil, err
	}
	steps = append(steps, custom...)

	steps = append(steps, NewRestartStep(svc, cfg.Services.WebServer.String(), tally))

	opts := []RunnerOption{
		WithTally(tally),
		WithReceipts(NewReceiptStore(cfg.StateDir.String())),
	}
	if deps.Logger != nil {
		opts = append(opts, WithLogger(deps.Logger))
	}
	if deps.Spinner != nil {
		opts = append(opts, WithSpinner(deps.Spinner))
	}
	return NewRunner(steps, opts...), nil
}

// customSteps loads custom steps from the configured path, or from
// wpsteps.cue in the working directory when no path is configured. A
// configured path must exist; the discovered one is optional.
func customSteps(path string) ([]Step, error) {
	if path == "" {
		if _, err := os.Stat(stepfile.DefaultFileName); err != nil {
			return nil, nil
		}
		return LoadCustomSteps(stepfile.DefaultFileName)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load step file").
			WithResource(path).
			WithSuggestion("Create the file, or remove step_file from the config to skip custom steps").
			Wrap(err).
			BuildError()
	}
	return LoadCustomSteps(path)
}
