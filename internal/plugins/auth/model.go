// Package auth handles credential sign-up and sign-in, bcrypt password
// hashing, signed session tokens, and the route guard that keeps anonymous
// visitors out of the dashboard and signed-in visitors out of the login forms.
//
// Sessions are stateless: a token is valid iff its signature verifies and it
// has not expired. Nothing is stored server-side, so signing out only discards
// the cookie.
package auth

import (
	"time"
)

// User is a row of the users table. The password hash never leaves the
// package in JSON form.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Identity returns the public claim set minted into a session token.
func (u *User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Identity is the minimal claim set carried by a session token.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// --- Request DTOs (bound from HTTP requests) ---

// SignupRequest is the JSON body of POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// SignupInput is the input for creating a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// --- Responses ---

// signupResponse is returned with 201 on successful registration.
type signupResponse struct {
	Success bool `json:"success"`
}

// loginResponse is returned with 200 on successful sign-in.
type loginResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// sessionResponse describes the caller's current session.
type sessionResponse struct {
	User    Identity  `json:"user"`
	Expires time.Time `json:"expires"`
}
