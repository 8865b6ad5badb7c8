package service

import (
	"errors"
	"testing"

	"github.com/nexusorbital-promo/internal/config"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func newAuthTestService(t *testing.T) *AuthService {
	t.Helper()
	db := openServiceTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "unit-test-secret"
	cfg.JWT.ExpireHours = 24
	svc := NewAuthService(cfg, repository.NewAdminRepository(db))

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := models.Admin{Username: "admin", PasswordHash: string(hash)}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return svc
}

func TestLoginAndParseJWT(t *testing.T) {
	svc := newAuthTestService(t)

	admin, token, expiresAt, err := svc.Login("admin", "correct-password")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("expected token and expiry, got %q %v", token, expiresAt)
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT error: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newAuthTestService(t)

	if _, _, _, err := svc.Login("admin", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("nobody", "correct-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestParseJWTRejectsTampering(t *testing.T) {
	svc := newAuthTestService(t)

	_, token, _, err := svc.Login("admin", "correct-password")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	otherCfg := &config.Config{}
	otherCfg.JWT.SecretKey = "a-different-secret"
	otherCfg.JWT.ExpireHours = 24
	other := NewAuthService(otherCfg, nil)
	if _, err := other.ParseJWT(token); err == nil {
		t.Fatalf("expected signature verification failure")
	}
	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected parse failure for tampered token")
	}
}
