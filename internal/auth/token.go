package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	// TokenTTL is the lifetime of an issued session token.
	TokenTTL = 7 * 24 * time.Hour

	// DevelopmentSecret signs tokens when no secret is configured.
	// Anyone who knows it can forge sessions.
	DevelopmentSecret = "dev-only-insecure-jwt-secret-change-me"

	bearerPrefix = "Bearer "
)

// ErrInvalidToken is returned for every verification failure. Callers
// cannot tell an expired token from a forged one.
var ErrInvalidToken = errors.New("invalid or expired token")

// ClaimFields identify the session owner.
type ClaimFields struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Claims is the signed token payload.
type Claims struct {
	ClaimFields
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithTTL overrides TokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewTokenService builds a token service for secret. An empty secret falls
// back to DevelopmentSecret and logs a warning.
func NewTokenService(secret string, log zerolog.Logger, opts ...TokenOption) *TokenService {
	if secret == "" {
		log.Warn().Msg("JWT_SECRET is not set, signing tokens with the development secret")
		secret = DevelopmentSecret
	}

	s := &TokenService{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for fields, valid from now for the configured TTL.
func (s *TokenService) Issue(fields ClaimFields) (string, error) {
	now := s.now()
	claims := Claims{
		ClaimFields: fields,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the claims.
func (s *TokenService) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid {
		s.log.Debug().Err(err).Msg("token verification failed")
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>"
// header value.
func ExtractBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
