// SPDX-License-Identifier: MPL-2.0

// Package database manages the MariaDB side of a WordPress install: schema
// and user existence probes, idempotent creation, and grants. Identifiers
// are validated before interpolation because DDL cannot carry placeholders;
// data values always go through driver parameters.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// identifierRe matches the character set config validation allows for
// database and user names. Anything else is rejected before it can reach
// an interpolated DDL statement.
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9$_]{1,64}$`)

// hostRe matches MySQL account host patterns such as "localhost", "%",
// and "10.0.0.%".
var hostRe = regexp.MustCompile(`^[A-Za-z0-9.%_-]{1,255}$`)

var (
	// ErrBadIdentifier indicates a schema or user name unsafe for DDL.
	ErrBadIdentifier = errors.New("invalid sql identifier")

	// ErrBadHost indicates an account host pattern unsafe for DDL.
	ErrBadHost = errors.New("invalid account host")

	//nolint:gochecknoglobals // Test seam for readiness polling cadence.
	pingInterval = 500 * time.Millisecond
)

type (
	// ConnectConfig describes how to reach the MariaDB server. When Socket
	// is set the connection uses it; otherwise Host and Port over TCP.
	ConnectConfig struct {
		User     string
		Password string
		Host     string
		Port     int
		Socket   string
		Database string
	}

	// Row is the single-row scan surface returned by query probes.
	Row interface {
		Scan(dest ...any) error
	}

	// Querier is the subset of *sql.DB the admin operations need. The
	// indirection exists so tests can script results without a server.
	Querier interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryRowContext(ctx context.Context, query string, args ...any) Row
		PingContext(ctx context.Context) error
	}

	// Admin performs idempotent provisioning operations against MariaDB.
	Admin struct {
		db     Querier
		closer func() error
	}

	// sqlQuerier adapts *sql.DB to Querier.
	sqlQuerier struct {
		db *sql.DB
	}
)

func (s sqlQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s sqlQuerier) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s sqlQuerier) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// driverConfig builds the go-sql-driver configuration for the connection.
// InterpolateParams lets placeholders work in statements the server refuses
// to prepare, such as CREATE USER.
func (c ConnectConfig) driverConfig() *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Database
	mc.InterpolateParams = true
	if c.Socket != "" {
		mc.Net = "unix"
		mc.Addr = c.Socket
	} else {
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	return mc
}

// DSN returns the driver connection string for this configuration.
func (c ConnectConfig) DSN() string {
	return c.driverConfig().FormatDSN()
}

// Open connects to the server described by cfg. The connection pool is kept
// small: provisioning runs a handful of statements, not a workload.
func Open(cfg ConnectConfig) (*Admin, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(3 * time.Minute)
	return &Admin{db: sqlQuerier{db: db}, closer: db.Close}, nil
}

// NewAdmin wraps an existing Querier, primarily for tests.
func NewAdmin(q Querier) *Admin {
	return &Admin{db: q}
}

// Close releases the underlying connection pool.
func (a *Admin) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Ping verifies the server is reachable with the configured credentials.
func (a *Admin) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// WaitReady polls the server until it answers a ping or the timeout
// elapses. A freshly enabled MariaDB unit needs a moment before it accepts
// connections.
func (a *Admin) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		lastErr = a.db.PingContext(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database not ready after %s: %w", timeout, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingInterval):
		}
	}
}

// SchemaExists reports whether the named schema is present.
func (a *Admin) SchemaExists(ctx context.Context, name string) (bool, error) {
	var n int
	row := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?", name)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("probing schema %s: %w", name, err)
	}
	return n > 0, nil
}

// UserExists reports whether the account user@host is present.
func (a *Admin) UserExists(ctx context.Context, user, host string) (bool, error) {
	var n int
	row := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mysql.user WHERE User = ? AND Host = ?", user, host)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("probing user %s@%s: %w", user, host, err)
	}
	return n > 0, nil
}

// EnsureSchema creates the schema when missing.
func (a *Admin) EnsureSchema(ctx context.Context, name string) error {
	ident, err := quoteIdentifier(name)
	if err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("creating schema %s: %w", name, err)
	}
	return nil
}

// EnsureUser creates the account user@host with the given password when
// missing. An existing account is left untouched, password included.
func (a *Admin) EnsureUser(ctx context.Context, user, host, password string) error {
	account, err := quoteAccount(user, host)
	if err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx,
		"CREATE USER IF NOT EXISTS "+account+" IDENTIFIED BY ?", password); err != nil {
		return fmt.Errorf("creating user %s@%s: %w", user, host, err)
	}
	return nil
}

// GrantAll grants full privileges on the schema to user@host. Granting is
// naturally idempotent.
func (a *Admin) GrantAll(ctx context.Context, schema, user, host string) error {
	ident, err := quoteIdentifier(schema)
	if err != nil {
		return err
	}
	account, err := quoteAccount(user, host)
	if err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx,
		"GRANT ALL PRIVILEGES ON "+ident+".* TO "+account); err != nil {
		return fmt.Errorf("granting on %s to %s@%s: %w", schema, user, host, err)
	}
	return nil
}

// FlushPrivileges reloads the grant tables.
func (a *Admin) FlushPrivileges(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, "FLUSH PRIVILEGES"); err != nil {
		return fmt.Errorf("flushing privileges: %w", err)
	}
	return nil
}

// quoteIdentifier validates name against the safe identifier set and wraps
// it in backticks.
func quoteIdentifier(name string) (string, error) {
	if !identifierRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrBadIdentifier, name)
	}
	return "`" + name + "`", nil
}

// quoteAccount validates and quotes a user@host account reference.
func quoteAccount(user, host string) (string, error) {
	if !identifierRe.MatchString(user) {
		return "", fmt.Errorf("%w: %q", ErrBadIdentifier, user)
	}
	if !hostRe.MatchString(host) {
		return "", fmt.Errorf("%w: %q", ErrBadHost, host)
	}
	return "'" + user + "'@'" + host + "'", nil
}
