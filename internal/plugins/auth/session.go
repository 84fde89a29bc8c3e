package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession covers every reason a token is rejected: bad signature,
// expired, malformed, or missing claims.
var ErrInvalidSession = errors.New("invalid session token")

// sessionClaims is the JWT payload: the identity plus exp/iat.
type sessionClaims struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies HS256 session tokens.
type SessionIssuer struct {
	secret      []byte
	ttl         time.Duration
	includeRole bool
	now         func() time.Time
}

// NewSessionIssuer creates an issuer signing with secret. An empty secret or
// a non-positive lifetime is a configuration error.
func NewSessionIssuer(secret string, ttl time.Duration, includeRole bool) (*SessionIssuer, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session lifetime must be positive, got %s", ttl)
	}
	return &SessionIssuer{
		secret:      []byte(secret),
		ttl:         ttl,
		includeRole: includeRole,
		now:         time.Now,
	}, nil
}

// TTL returns the lifetime of minted tokens.
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the identity and returns it with its expiry.
func (s *SessionIssuer) Issue(identity Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if s.includeRole {
		claims.Role = identity.Role
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse verifies the token and returns its identity and expiry.
func (s *SessionIssuer) Parse(token string) (*Identity, time.Time, error) {
	claims := &sessionClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, time.Time{}, ErrInvalidSession
	}

	identity := &Identity{
		ID:    claims.ID,
		Name:  claims.Name,
		Email: claims.Email,
	}
	if s.includeRole {
		identity.Role = claims.Role
	}
	return identity, claims.ExpiresAt.Time, nil
}
