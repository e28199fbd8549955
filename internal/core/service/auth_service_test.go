package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/domain"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

func newAuthService(users *stubUserRepo, entities *stubEntityRepo) (*AuthService, *auth.TokenService) {
	tokens := auth.NewTokenService("secret", zerolog.Nop())
	svc := NewAuthService(users, entities, auth.NewPasswordHasher(bcrypt.MinCost), tokens, zerolog.Nop())
	return svc, tokens
}

func TestAuthService_Register_Success(t *testing.T) {
	users := newStubUserRepo()
	svc, tokens := newAuthService(users, newStubEntityRepo())

	res, err := svc.Register(context.Background(), ports.RegisterInput{Name: " Ann ", Email: "A@X.com", Password: "Abcdef12"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.ID == "" || res.User.Email != "a@x.com" || res.User.Name != "Ann" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.User.PasswordHash == "Abcdef12" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("Abcdef12")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	claims, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != res.User.ID || claims.Email != "a@x.com" || claims.Name != "Ann" {
		t.Fatalf("unexpected claims: %+v", claims.ClaimFields)
	}
	if _, ok := users.users[res.User.ID]; !ok {
		t.Fatalf("user not persisted under returned id")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(newStubUserRepo(), newStubEntityRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "Ann", Email: "a@x.com", Password: "Abcdef12"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, ports.RegisterInput{Name: "Ann 2", Email: "A@x.com ", Password: "Abcdef12"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newAuthService(newStubUserRepo(), newStubEntityRepo())

	_, err := svc.Register(context.Background(), ports.RegisterInput{Email: "a@x.com", Password: "Abcdef12"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAuthService_Register_RepoFailure(t *testing.T) {
	users := newStubUserRepo()
	users.err = errors.New("db down")
	svc, _ := newAuthService(users, newStubEntityRepo())

	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Ann", Email: "a@x.com", Password: "Abcdef12"})
	if err == nil || errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, tokens := newAuthService(newStubUserRepo(), newStubEntityRepo())
	ctx := context.Background()

	reg, err := svc.Register(ctx, ports.RegisterInput{Name: "Ann", Email: "a@x.com", Password: "Abcdef12"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(ctx, "A@X.COM", "Abcdef12")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatalf("logged in as wrong user")
	}
	if _, err := tokens.Verify(res.Token); err != nil {
		t.Fatalf("login token invalid: %v", err)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthService(newStubUserRepo(), newStubEntityRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "Ann", Email: "a@x.com", Password: "Abcdef12"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct{ email, password string }{
		{"a@x.com", "wrong-password"},
		{"ghost@x.com", "Abcdef12"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("Login(%q): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestAuthService_Profile(t *testing.T) {
	entities := newStubEntityRepo()
	svc, _ := newAuthService(newStubUserRepo(), entities)
	ctx := context.Background()

	reg, err := svc.Register(ctx, ports.RegisterInput{Name: "Ann", Email: "a@x.com", Password: "Abcdef12"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	entities.entities["e1"] = domain.Entity{ID: "e1", UserID: reg.User.ID}
	entities.entities["e2"] = domain.Entity{ID: "e2", UserID: reg.User.ID}
	entities.entities["e3"] = domain.Entity{ID: "e3", UserID: "someone-else"}

	p, err := svc.Profile(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if p.Count.Entities != 2 || p.Email != "a@x.com" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if _, err := svc.Profile(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
