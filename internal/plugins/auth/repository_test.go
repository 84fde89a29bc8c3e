package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spaceyvirtualera/spacey/internal/apperror"
	"github.com/spaceyvirtualera/spacey/internal/config"
)

func newMockRepo(t *testing.T, driver string, includeRole bool) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewUserRepository(db, driver, includeRole), mock
}

func TestRebind(t *testing.T) {
	pg := &userRepository{driver: config.DriverPostgres}
	my := &userRepository{driver: config.DriverMySQL}
	query := `SELECT 1 FROM users WHERE email = ? AND id = ?`

	if got := pg.rebind(query); got != `SELECT 1 FROM users WHERE email = $1 AND id = $2` {
		t.Errorf("postgres rebind: %q", got)
	}
	if got := my.rebind(query); got != query {
		t.Errorf("mysql query must be unchanged, got %q", got)
	}
}

func TestUserRepository_Create(t *testing.T) {
	user := &User{ID: "u-1", Name: "Jane", Email: "jane@example.com", PasswordHash: "$2a$12$hash"}

	tests := []struct {
		name    string
		driver  string
		pattern string
	}{
		{"postgres", config.DriverPostgres, `INSERT INTO users \(id, name, email, password_hash\) VALUES \(\$1, \$2, \$3, \$4\)`},
		{"mysql", config.DriverMySQL, `INSERT INTO users \(id, name, email, password_hash\) VALUES \(\?, \?, \?, \?\)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t, tt.driver, false)
			mock.ExpectExec(tt.pattern).
				WithArgs("u-1", "Jane", "jane@example.com", "$2a$12$hash").
				WillReturnResult(sqlmock.NewResult(0, 1))

			if err := repo.Create(context.Background(), user); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		err    error
	}{
		{"postgres unique violation", config.DriverPostgres, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}},
		{"mysql duplicate entry", config.DriverMySQL, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t, tt.driver, false)
			mock.ExpectExec(`INSERT INTO users`).WillReturnError(tt.err)

			err := repo.Create(context.Background(), &User{ID: "u-2", Email: "jane@example.com"})
			if !errors.Is(err, ErrDuplicateEmail) {
				t.Fatalf("expected ErrDuplicateEmail, got %v", err)
			}
		})
	}
}

func TestUserRepository_CreateOtherError(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverPostgres, false)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23502"})

	err := repo.Create(context.Background(), &User{ID: "u-3"})
	if err == nil || errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected a non-duplicate error, got %v", err)
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL, false)
	mock.ExpectQuery(`SELECT id, name, email, password_hash FROM users WHERE email = \? LIMIT 1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash"}).
			AddRow("u-1", "Jane", "jane@example.com", "$2a$12$hash"))

	got, err := repo.FindByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &User{ID: "u-1", Name: "Jane", Email: "jane@example.com", PasswordHash: "$2a$12$hash"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestUserRepository_FindByEmailWithRole(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverPostgres, true)
	mock.ExpectQuery(`SELECT id, name, email, password_hash, role FROM users WHERE email = \$1 LIMIT 1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role"}).
			AddRow("u-1", "Jane", "jane@example.com", "$2a$12$hash", "admin"))

	got, err := repo.FindByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != "admin" {
		t.Errorf("expected role admin, got %q", got.Role)
	}
}

func TestUserRepository_FindByEmailNullRole(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL, true)
	mock.ExpectQuery(`SELECT id, name, email, password_hash, role FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role"}).
			AddRow("u-1", "Jane", "jane@example.com", "$2a$12$hash", nil))

	got, err := repo.FindByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != "" {
		t.Errorf("expected empty role, got %q", got.Role)
	}
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL, false)
	mock.ExpectQuery(`SELECT id, name, email, password_hash FROM users`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserRepository_EmailExists(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverPostgres, false)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected email to exist")
	}
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL, false)
	mock.ExpectExec(`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = \?`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateLastLogin(context.Background(), "u-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
