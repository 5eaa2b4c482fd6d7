package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/autolot/pkg/handlers"
)

const bearerPrefix = "Bearer "

type repo struct {
	creds  CredentialStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the auth system.
type Option func(*repo)

// WithClock replaces the clock used for issued-at and expiry claims.
func WithClock(now func() time.Time) Option {
	return func(r *repo) {
		r.now = now
	}
}

// New creates the auth system.
func New(creds CredentialStore, cfg Config, logger *slog.Logger, opts ...Option) System {
	r := &repo{
		creds:  creds,
		cfg:    cfg,
		logger: logger.With("system", "auth"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Authenticate(ctx context.Context, username, password string) (string, error) {
	if !r.creds.Check(ctx, username, password) {
		r.logger.Warn("login rejected", "username", username)
		return "", ErrInvalidCredentials
	}

	now := r.now()
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    r.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.cfg.TokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(r.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	r.logger.Info("admin login", "username", username)
	return token, nil
}

func (r *repo) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	}
	if r.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.cfg.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(r.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Role != RoleAdmin {
		return nil, ErrForbidden
	}
	return &claims, nil
}

func (r *repo) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, err := r.Verify(bearerToken(req))
		if err != nil {
			status := MapHTTPStatus(err)
			if errors.Is(err, ErrInvalidToken) {
				err = ErrInvalidToken
			}
			handlers.RespondError(w, r.logger, status, err)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func bearerToken(req *http.Request) string {
	h := req.Header.Get("Authorization")
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}
