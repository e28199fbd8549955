package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

// Context keys set by RequireAuth.
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// AuthError is a failed authentication with the HTTP status to answer with.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var (
	ErrTokenRequired = &AuthError{Status: http.StatusUnauthorized, Message: "Authentication token required"}
	ErrTokenInvalid  = &AuthError{Status: http.StatusUnauthorized, Message: "Invalid or expired token"}
)

// Authenticator resolves the bearer token of an API request to its owner.
type Authenticator struct {
	tokens ports.TokenVerifier
}

func NewAuthenticator(tokens ports.TokenVerifier) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate returns the verified claims of r's bearer token, or
// ErrTokenRequired / ErrTokenInvalid. Callers must scope data access by
// claims.UserID.
func (a *Authenticator) Authenticate(r *http.Request) (*auth.Claims, error) {
	token, ok := auth.ExtractBearer(r.Header.Get(echo.HeaderAuthorization))
	if !ok {
		metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
		return nil, ErrTokenRequired
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// RequireAuth rejects unauthenticated requests and stores the caller's id
// and claims in the echo context.
func RequireAuth(a *Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := a.Authenticate(c.Request())
			if err != nil {
				return err
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextClaims, claims)
			return next(c)
		}
	}
}
