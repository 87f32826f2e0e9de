// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"io"
	"time"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/database"
	"github.com/danielcregg/aws2023-wp/internal/issue"
)

// dbReadyTimeout bounds how long the step waits for a freshly started
// database unit to accept connections.
const dbReadyTimeout = 30 * time.Second

// Compile-time interface checks
var (
	_ Step      = (*DatabaseStep)(nil)
	_ Preparer  = (*DatabaseStep)(nil)
	_ io.Closer = (*DatabaseStep)(nil)
)

// DatabaseStep ensures the WordPress schema and its credentialed user exist,
// with full privileges on the schema. Existing accounts are left untouched,
// password included. The admin connection opens lazily on first check and is
// reused by apply.
type DatabaseStep struct {
	cfg      config.DatabaseConfig
	password *PasswordSource
	open     func(ctx context.Context) (*database.Admin, error)
	admin    *database.Admin
}

// NewDatabaseStep creates the step. A nil open falls back to connecting as
// the configured admin user over the unix socket.
func NewDatabaseStep(cfg config.DatabaseConfig, password *PasswordSource,
	open func(ctx context.Context) (*database.Admin, error),
) *DatabaseStep {
	s := &DatabaseStep{cfg: cfg, password: password, open: open}
	if s.open == nil {
		s.open = s.openAdmin
	}
	return s
}

// Name implements Step.
func (s *DatabaseStep) Name() string { return "database" }

// Summary implements Step.
func (s *DatabaseStep) Summary() string { return "Create WordPress database and user" }

// Check reports whether both the schema and the user account exist.
func (s *DatabaseStep) Check(ctx context.Context) (bool, error) {
	admin, err := s.connect(ctx)
	if err != nil {
		return false, err
	}

	schemaOK, err := admin.SchemaExists(ctx, s.cfg.Name.String())
	if err != nil {
		return false, err
	}
	userOK, err := admin.UserExists(ctx, s.cfg.User.String(), s.cfg.Host)
	if err != nil {
		return false, err
	}
	return schemaOK && userOK, nil
}

// Prepare resolves the user's password before the apply starts, so any
// prompt happens outside the spinner.
func (s *DatabaseStep) Prepare(ctx context.Context) error {
	_, err := s.password.Get()
	return err
}

// Apply creates the schema and user where missing, grants privileges, and
// reloads the grant tables.
func (s *DatabaseStep) Apply(ctx context.Context) error {
	admin, err := s.connect(ctx)
	if err != nil {
		return err
	}
	pw, err := s.password.Get()
	if err != nil {
		return err
	}

	name := s.cfg.Name.String()
	user := s.cfg.User.String()
	if err := admin.EnsureSchema(ctx, name); err != nil {
		return err
	}
	if err := admin.EnsureUser(ctx, user, s.cfg.Host, pw); err != nil {
		return err
	}
	if err := admin.GrantAll(ctx, name, user, s.cfg.Host); err != nil {
		return err
	}
	return admin.FlushPrivileges(ctx)
}

// Close releases the admin connection.
func (s *DatabaseStep) Close() error {
	if s.admin == nil {
		return nil
	}
	err := s.admin.Close()
	s.admin = nil
	return err
}

func (s *DatabaseStep) connect(ctx context.Context) (*database.Admin, error) {
	if s.admin != nil {
		return s.admin, nil
	}
	admin, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.admin = admin
	return admin, nil
}

// openAdmin connects as the admin user over the unix socket and waits for
// the server to come up, covering the window right after the services step
// started the unit.
func (s *DatabaseStep) openAdmin(ctx context.Context) (*database.Admin, error) {
	admin, err := database.Open(database.ConnectConfig{
		User:   s.cfg.AdminUser,
		Socket: s.cfg.Socket,
	})
	if err != nil {
		return nil, err
	}

	if err := admin.WaitReady(ctx, dbReadyTimeout); err != nil {
		_ = admin.Close()
		return nil, issue.NewErrorContext().
			WithOperation("connect to database").
			WithResource(s.cfg.Socket).
			WithSuggestion("Verify the database service is running").
			WithSuggestion("Check that database.socket points at the server's unix socket").
			Wrap(err).
			BuildError()
	}
	return admin, nil
}
