package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/domain"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	secureCookie bool
}

func NewAuthHandler(authService ports.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72,password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authData struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new account and starts a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  envelope{data=authData}
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  map[string]any
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", attemptResult(err)).Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()

	c.SetCookie(auth.SessionCookie(res.Token, h.secureCookie))
	return respond(c, http.StatusCreated, authData{User: res.User, Token: res.Token}, "User registered successfully")
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  envelope{data=authData}
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  map[string]any
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", attemptResult(err)).Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()

	c.SetCookie(auth.SessionCookie(res.Token, h.secureCookie))
	return respond(c, http.StatusOK, authData{User: res.User, Token: res.Token}, "Login successful")
}

// Logout clears the session cookie. Tokens stay valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(auth.ExpiredSessionCookie(h.secureCookie))
	return respond(c, http.StatusOK, nil, "Logged out successfully")
}

// Profile returns the caller's account and entity count.
//
// @Summary      Current user profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=domain.UserProfile}
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/user/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.authService.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile, "")
}

func attemptResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserExists):
		return "user_exists"
	default:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return "invalid_input"
		}
		return "error"
	}
}

// bindAndValidate decodes the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("Invalid request body")
	}
	return c.Validate(req)
}
