// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/danielcregg/aws2023-wp/internal/config"
	"github.com/danielcregg/aws2023-wp/internal/database"
)

type stubSQLResult struct{}

func (stubSQLResult) LastInsertId() (int64, error) { return 0, nil }
func (stubSQLResult) RowsAffected() (int64, error) { return 0, nil }

type stubRow struct {
	count int
}

func (r stubRow) Scan(dest ...any) error {
	for _, d := range dest {
		if p, ok := d.(*int); ok {
			*p = r.count
		}
	}
	return nil
}

// stubQuerier replays scripted probe counts and records every statement.
type stubQuerier struct {
	schemaCount int
	userCount   int
	execSQL     []string
	execArgs    [][]any
}

func (q *stubQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	q.execSQL = append(q.execSQL, query)
	q.execArgs = append(q.execArgs, args)
	return stubSQLResult{}, nil
}

func (q *stubQuerier) QueryRowContext(_ context.Context, query string, _ ...any) database.Row {
	if query == "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?" {
		return stubRow{count: q.schemaCount}
	}
	return stubRow{count: q.userCount}
}

func (q *stubQuerier) PingContext(context.Context) error { return nil }

func testDBConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Name:      "wordpress",
		User:      "wordpress",
		Host:      "localhost",
		Port:      3306,
		Socket:    "/var/lib/mysql/mysql.sock",
		AdminUser: "root",
	}
}

func adminOpener(q database.Querier, opens *int) func(context.Context) (*database.Admin, error) {
	return func(context.Context) (*database.Admin, error) {
		*opens++
		return database.NewAdmin(q), nil
	}
}

func TestDatabaseStep_Check_SchemaAndUserPresent(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{schemaCount: 1, userCount: 1}
	opens := 0
	step := NewDatabaseStep(testDBConfig(), NewPasswordSource("pw", nil), adminOpener(q, &opens))

	satisfied, err := step.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !satisfied {
		t.Error("expected satisfied with schema and user present")
	}
	if len(q.execSQL) != 0 {
		t.Errorf("check executed statements: %v", q.execSQL)
	}
}

func TestDatabaseStep_Check_UserMissing(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{schemaCount: 1, userCount: 0}
	opens := 0
	step := NewDatabaseStep(testDBConfig(), NewPasswordSource("pw", nil), adminOpener(q, &opens))

	satisfied, err := step.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if satisfied {
		t.Error("expected unsatisfied with the user missing")
	}
}

func TestDatabaseStep_Apply_StatementOrder(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{}
	opens := 0
	step := NewDatabaseStep(testDBConfig(), NewPasswordSource("wp-pass", nil), adminOpener(q, &opens))

	if err := step.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"CREATE DATABASE IF NOT EXISTS `wordpress`",
		"CREATE USER IF NOT EXISTS 'wordpress'@'localhost' IDENTIFIED BY ?",
		"GRANT ALL PRIVILEGES ON `wordpress`.* TO 'wordpress'@'localhost'",
		"FLUSH PRIVILEGES",
	}
	if len(q.execSQL) != len(want) {
		t.Fatalf("executed %d statements, want %d: %v", len(q.execSQL), len(want), q.execSQL)
	}
	for i, stmt := range want {
		if q.execSQL[i] != stmt {
			t.Errorf("statement %d = %q, want %q", i, q.execSQL[i], stmt)
		}
	}

	// The password travels as a driver parameter, never spliced into SQL.
	if len(q.execArgs[1]) != 1 || q.execArgs[1][0] != "wp-pass" {
		t.Errorf("CREATE USER args = %v, want the password parameter", q.execArgs[1])
	}
}

func TestDatabaseStep_ConnectionReusedAcrossCheckAndApply(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{}
	opens := 0
	step := NewDatabaseStep(testDBConfig(), NewPasswordSource("pw", nil), adminOpener(q, &opens))

	if _, err := step.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := step.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opens != 1 {
		t.Errorf("opened %d connections, want 1", opens)
	}

	if err := step.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Close with no live connection is a no-op.
	if err := step.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDatabaseStep_Prepare_ResolvesPassword(t *testing.T) {
	t.Parallel()

	prompts := 0
	src := NewPasswordSource("", func() (string, error) {
		prompts++
		return "typed", nil
	})
	q := &stubQuerier{}
	opens := 0
	step := NewDatabaseStep(testDBConfig(), src, adminOpener(q, &opens))

	if err := step.Prepare(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := step.Apply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompts != 1 {
		t.Errorf("prompt ran %d times, want 1", prompts)
	}
	if q.execArgs[1][0] != "typed" {
		t.Errorf("CREATE USER args = %v, want the prompted password", q.execArgs[1])
	}
}

func TestDatabaseStep_Prepare_FailsWithoutSource(t *testing.T) {
	t.Parallel()

	q := &stubQuerier{}
	opens := 0
	step := NewDatabaseStep(testDBConfig(), NewPasswordSource("", nil), adminOpener(q, &opens))

	err := step.Prepare(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrNoPasswordSource) {
		t.Errorf("expected ErrNoPasswordSource, got %v", err)
	}
}
