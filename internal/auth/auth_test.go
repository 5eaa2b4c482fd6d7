package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/autolot/internal/auth"
	"github.com/JaimeStill/autolot/pkg/routes"
)

const secret = "test-secret"

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newSystem(t *testing.T, creds auth.CredentialStore, now func() time.Time) auth.System {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.New(creds, auth.Config{
		Secret:   secret,
		TokenTTL: 24 * time.Hour,
		Issuer:   "autolot",
	}, logger, auth.WithClock(now))
}

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStaticCredentials(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name  string
		creds auth.StaticCredentials
		user  string
		pass  string
		want  bool
	}{
		{"plain match", auth.StaticCredentials{Username: "admin", Password: "s3cret"}, "admin", "s3cret", true},
		{"plain wrong password", auth.StaticCredentials{Username: "admin", Password: "s3cret"}, "admin", "nope", false},
		{"wrong username", auth.StaticCredentials{Username: "admin", Password: "s3cret"}, "root", "s3cret", false},
		{"hash match", auth.StaticCredentials{Username: "admin", Hash: hash}, "admin", "s3cret", true},
		{"hash wrong password", auth.StaticCredentials{Username: "admin", Hash: hash}, "admin", "nope", false},
		{"hash wins over password", auth.StaticCredentials{Username: "admin", Password: "plain", Hash: hash}, "admin", "plain", false},
		{"empty configured password", auth.StaticCredentials{Username: "admin"}, "admin", "", false},
		{"empty configured username", auth.StaticCredentials{Password: "x"}, "", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Check(context.Background(), tt.user, tt.pass); got != tt.want {
				t.Errorf("Check = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	sys := newSystem(t, auth.StaticCredentials{Username: "admin", Password: "pw"}, fixed(epoch))

	token, err := sys.Authenticate(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	var claims auth.Claims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithTimeFunc(fixed(epoch)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.Role != auth.RoleAdmin {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.Issuer != "autolot" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
	if !claims.ExpiresAt.Time.Equal(epoch.Add(24 * time.Hour)) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt.Time, epoch.Add(24*time.Hour))
	}
	if !claims.IssuedAt.Time.Equal(epoch) {
		t.Errorf("iat = %v, want %v", claims.IssuedAt.Time, epoch)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	sys := newSystem(t, auth.StaticCredentials{Username: "admin", Password: "pw"}, fixed(epoch))

	token, err := sys.Authenticate(context.Background(), "admin", "wrong")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if token != "" {
		t.Error("expected no token")
	}
	if auth.MapHTTPStatus(err) != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", auth.MapHTTPStatus(err))
	}
}

func TestVerify(t *testing.T) {
	sys := newSystem(t, auth.StaticCredentials{Username: "admin", Password: "pw"}, fixed(epoch))

	valid, err := sys.Authenticate(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	registered := jwt.RegisteredClaims{
		Issuer:    "autolot",
		ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
	}

	tests := []struct {
		name    string
		token   string
		now     time.Time
		wantErr error
	}{
		{"valid", valid, epoch.Add(time.Hour), nil},
		{"missing", "", epoch, auth.ErrMissingToken},
		{"garbage", "not.a.token", epoch, auth.ErrInvalidToken},
		{"expired", valid, epoch.Add(25 * time.Hour), auth.ErrInvalidToken},
		{
			"wrong secret",
			sign(auth.Claims{Role: "admin", RegisteredClaims: registered}, jwt.SigningMethodHS256, []byte("other")),
			epoch,
			auth.ErrInvalidToken,
		},
		{
			"wrong algorithm",
			sign(auth.Claims{Role: "admin", RegisteredClaims: registered}, jwt.SigningMethodHS512, []byte(secret)),
			epoch,
			auth.ErrInvalidToken,
		},
		{
			"not admin",
			sign(auth.Claims{Role: "viewer", RegisteredClaims: registered}, jwt.SigningMethodHS256, []byte(secret)),
			epoch,
			auth.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := newSystem(t, auth.StaticCredentials{}, fixed(tt.now))

			claims, err := verifier.Verify(tt.token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("verify: %v", err)
				}
				if claims.Role != auth.RoleAdmin {
					t.Errorf("role = %q", claims.Role)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	sys := newSystem(t, auth.StaticCredentials{Username: "admin", Password: "pw"}, fixed(epoch))

	token, err := sys.Authenticate(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	protected := sys.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic YWRtaW46cHc=", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/inquiries", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	sys := newSystem(t, auth.StaticCredentials{Username: "admin", Password: "pw"}, fixed(epoch))

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	tests := []struct {
		name      string
		body      string
		want      int
		wantToken bool
		wantMsg   string
	}{
		{"success", `{"username":"admin","password":"pw"}`, http.StatusOK, true, ""},
		{"wrong password", `{"username":"admin","password":"x"}`, http.StatusUnauthorized, false, "Invalid Credentials"},
		{"malformed", `{`, http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/admin/login", strings.NewReader(tt.body)))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}

			var env struct {
				Success bool   `json:"success"`
				Token   string `json:"token"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Success != tt.wantToken || (env.Token != "") != tt.wantToken {
				t.Errorf("envelope = %+v", env)
			}
			if tt.wantMsg != "" && env.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", env.Message, tt.wantMsg)
			}
		})
	}
}
