// Package auth issues and verifies admin tokens and guards admin routes.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role a token is issued for.
const RoleAdmin = "admin"

// Claims are the token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds token signing settings.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// System defines the contract for admin authentication.
type System interface {
	Handler() *Handler

	// Authenticate checks the credentials and returns a signed token.
	Authenticate(ctx context.Context, username, password string) (string, error)
	// Verify parses a token and requires the admin role.
	Verify(token string) (*Claims, error)
	// RequireAdmin rejects requests without a valid admin bearer token.
	RequireAdmin(next http.Handler) http.Handler
}
