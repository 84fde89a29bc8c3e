package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spaceyvirtualera/spacey/internal/apperror"
)

// Client-facing messages. The login failure message is shared by the
// unknown-email and wrong-password paths so responses are identical.
const (
	msgMissingFields      = "Missing required fields"
	msgMissingCredentials = "Missing credentials"
	msgPasswordTooShort   = "Password must be at least 8 characters"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgEmailInUse         = "Email already in use"
	msgInvalidCredentials = "Invalid email or password"
)

// minPasswordLength is the minimum password length in characters.
const minPasswordLength = 8

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input SignupInput) (*User, error)
	Login(ctx context.Context, input LoginInput) (token string, user *User, err error)
}

// Options toggles the optional auth extensions.
type Options struct {
	// TrackLastLogin stamps users.last_login after a successful sign-in.
	TrackLastLogin bool
}

// authService implements AuthService with bcrypt hashing and signed tokens.
type authService struct {
	repo     UserRepository
	hasher   *PasswordHasher
	sessions *SessionIssuer
	opts     Options
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, hasher *PasswordHasher, sessions *SessionIssuer, opts Options) AuthService {
	return &authService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		opts:     opts,
	}
}

// Register validates the submission, checks the email is free, hashes the
// password and persists the user. Validation runs before any store access.
//
// EmailExists and Create are separate statements, so two concurrent
// registrations for one email can both pass the pre-check. The unique index
// on users.email rejects the second insert and that is reported as a
// conflict too.
func (s *authService) Register(ctx context.Context, input SignupInput) (*User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	if err := validateSignup(input); err != nil {
		return nil, err
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict(msgEmailInUse)
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			slog.Info("duplicate registration rejected by unique constraint",
				slog.String("email", user.Email),
			)
			return nil, apperror.NewConflict(msgEmailInUse)
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user by email and password. On success it mints a
// session token for the user's identity.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return "", nil, apperror.NewValidation(msgMissingCredentials)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Don't reveal whether the email exists: same message, same work.
			s.hasher.VerifyDummy(ctx, input.Password)
			return "", nil, apperror.NewUnauthorized(msgInvalidCredentials)
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	ok, err := s.hasher.Verify(ctx, input.Password, user.PasswordHash)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("verifying password: %w", err))
	}
	if !ok {
		return "", nil, apperror.NewUnauthorized(msgInvalidCredentials)
	}

	token, _, err := s.sessions.Issue(user.Identity())
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("issuing session: %w", err))
	}

	// Non-critical: a failed stamp must not fail the sign-in.
	if s.opts.TrackLastLogin {
		if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
			slog.Warn("failed to update last login",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, user, nil
}

// --- Validation helpers ---

// validateSignup checks required fields and password length bounds.
func validateSignup(input SignupInput) error {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return apperror.NewValidation(msgMissingFields)
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return apperror.NewValidation(msgPasswordTooShort)
	}
	if len(input.Password) > maxPasswordBytes {
		return apperror.NewValidation(msgPasswordTooLong)
	}
	return nil
}

// normalizeEmail trims and lowercases so signup and login agree on the key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
