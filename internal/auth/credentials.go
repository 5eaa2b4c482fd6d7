package auth

import (
	"context"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore checks a username and password pair.
type CredentialStore interface {
	Check(ctx context.Context, username, password string) bool
}

// StaticCredentials is a single admin identity. Hash, a bcrypt hash, takes
// precedence over Password when set.
type StaticCredentials struct {
	Username string
	Password string
	Hash     string
}

func (c StaticCredentials) Check(ctx context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if c.Hash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) == nil
	} else {
		passOK = c.Password != "" &&
			subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	return userOK && passOK && c.Username != ""
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
