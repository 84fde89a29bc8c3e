package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spaceyvirtualera/spacey/internal/apperror"
	"github.com/spaceyvirtualera/spacey/internal/config"
)

// ErrDuplicateEmail is returned by Create when the users.email unique
// constraint rejects the insert. The constraint, not EmailExists, is the
// authority on uniqueness.
var ErrDuplicateEmail = errors.New("email already exists")

// Driver error codes for unique-key violations.
const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// UserRepository defines the data access contract for user operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// userRepository implements UserRepository with hand-written queries that
// run on both Postgres (pgx) and MariaDB. Queries are written with "?"
// placeholders and rebound to "$n" for Postgres.
type userRepository struct {
	db          *sql.DB
	driver      string
	includeRole bool
}

// NewUserRepository creates a user repository backed by the given pool.
// driver is the database/sql driver name the pool was opened with. When
// includeRole is set, lookups also read the optional users.role column.
func NewUserRepository(db *sql.DB, driver string, includeRole bool) UserRepository {
	return &userRepository{db: db, driver: driver, includeRole: includeRole}
}

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, name, email, password_hash)
	          VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by exact email match.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	columns := "id, name, email, password_hash"
	if r.includeRole {
		columns += ", role"
	}
	query := `SELECT ` + columns + ` FROM users WHERE email = ? LIMIT 1`

	user := &User{}
	var role sql.NullString
	dest := []any{&user.ID, &user.Name, &user.Email, &user.PasswordHash}
	if r.includeRole {
		dest = append(dest, &role)
	}

	err := r.db.QueryRowContext(ctx, r.rebind(query), email).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	user.Role = role.String

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during registration to fail fast before the expensive hash.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, r.rebind(query), email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin sets last_login to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.ExecContext(ctx, r.rebind(query), id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// rebind rewrites "?" placeholders to "$1".."$n" for Postgres.
func (r *userRepository) rebind(query string) string {
	if r.driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// isUniqueViolation reports whether err is a duplicate-key error from either
// supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}
