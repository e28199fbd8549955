package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/entityhub/entity-manager/internal/auth"
)

func newTokens() *auth.TokenService {
	return auth.NewTokenService("secret", zerolog.Nop())
}

func issue(t *testing.T, tokens *auth.TokenService, userID string) string {
	t.Helper()
	tok, err := tokens.Issue(auth.ClaimFields{UserID: userID, Email: userID + "@x.com", Name: "Test"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens()
	a := NewAuthenticator(tokens)
	valid := issue(t, tokens, "u1")
	foreign := issue(t, auth.NewTokenService("other", zerolog.Nop()), "u1")

	cases := []struct {
		name    string
		header  string
		wantErr *AuthError
	}{
		{"valid", "Bearer " + valid, nil},
		{"missing", "", ErrTokenRequired},
		{"wrong scheme", "Token " + valid, ErrTokenRequired},
		{"empty bearer", "Bearer ", ErrTokenRequired},
		{"garbage", "Bearer not-a-token", ErrTokenInvalid},
		{"foreign secret", "Bearer " + foreign, ErrTokenInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/entities", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			claims, err := a.Authenticate(req)
			if tc.wantErr == nil {
				if err != nil || claims.UserID != "u1" {
					t.Fatalf("expected u1, got %v / %v", claims, err)
				}
				return
			}

			var ae *AuthError
			if !errors.As(err, &ae) || ae != tc.wantErr {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if ae.Status != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", ae.Status)
			}
		})
	}
}

func TestRequireAuth_SetsContext(t *testing.T) {
	e := echo.New()
	tokens := newTokens()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "alice"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := RequireAuth(NewAuthenticator(tokens))(func(c echo.Context) error {
		called = true
		if c.Get(ContextUserID) != "alice" {
			t.Fatalf("user id not set")
		}
		claims, ok := c.Get(ContextClaims).(*auth.Claims)
		if !ok || claims.Email != "alice@x.com" {
			t.Fatalf("claims not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireAuth(NewAuthenticator(newTokens()))(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
}
