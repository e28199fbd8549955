package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

const (
	DashboardPath = "/dashboard"
	LoginPath     = "/login"
	RegisterPath  = "/register"
)

// PathClass is how the request gate treats a path.
type PathClass int

const (
	PathOther PathClass = iota
	PathProtected
	PathAuthPage
)

// Classify maps a request path to its gate class.
func Classify(path string) PathClass {
	switch {
	case path == DashboardPath || strings.HasPrefix(path, DashboardPath+"/"):
		return PathProtected
	case path == LoginPath || path == RegisterPath:
		return PathAuthPage
	default:
		return PathOther
	}
}

// GateOptions configures Gate.
type GateOptions struct {
	// SecureCookie marks the cleared cookie Secure.
	SecureCookie bool
}

// Gate guards browser pages. Protected pages need a valid session and
// redirect to the login page otherwise; login and register redirect to the
// dashboard when a valid session already exists. A present but invalid
// token on a protected page is cleared by the redirect. Every other path
// passes untouched.
func Gate(tokens ports.TokenVerifier, opts GateOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			class := Classify(c.Request().URL.Path)
			if class == PathOther {
				return next(c)
			}

			token, present := sessionToken(c.Request())
			valid := false
			if present {
				_, err := tokens.Verify(token)
				valid = err == nil
			}

			switch class {
			case PathProtected:
				if valid {
					return next(c)
				}
				if present {
					c.SetCookie(auth.ExpiredSessionCookie(opts.SecureCookie))
				}
				return c.Redirect(http.StatusTemporaryRedirect, LoginPath)
			case PathAuthPage:
				if valid {
					return c.Redirect(http.StatusTemporaryRedirect, DashboardPath)
				}
			}
			return next(c)
		}
	}
}

// sessionToken reads the session cookie, falling back to a bearer header.
func sessionToken(r *http.Request) (string, bool) {
	if ck, err := r.Cookie(auth.CookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return auth.ExtractBearer(r.Header.Get(echo.HeaderAuthorization))
}
