package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/config"
)

func mintToken(t *testing.T, cfg config.JWTConfig, claims AccessTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "troupe"}
	directorID := uuid.New()
	now := time.Now()

	signed := mintToken(t, cfg, AccessTokenClaims{
		DirectorID: directorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.DirectorID != directorID {
		t.Fatalf("expected director %s, got %s", directorID, claims.DirectorID)
	}
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "troupe"}
	signed := mintToken(t, cfg, AccessTokenClaims{
		DirectorID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expiry rejection")
	}
}

func TestParseAccessToken_RejectsWrongIssuer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "troupe"}
	signed := mintToken(t, cfg, AccessTokenClaims{
		DirectorID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected issuer rejection")
	}
}

func TestParseAccessToken_RequiresSecret(t *testing.T) {
	if _, err := ParseAccessToken(config.JWTConfig{}, "token"); err == nil {
		t.Fatal("expected error without secret")
	}
}
