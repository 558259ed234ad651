package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_IssueParse(t *testing.T) {
	svc := NewTokenService("secret", 15*time.Minute)

	tok, err := svc.IssueToken("ops-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "Bearer" || tok.ExpiresIn != 900 {
		t.Fatalf("unexpected token: %+v", tok)
	}

	claims, err := svc.ParseAccessToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.OperatorID != "ops-1" || claims.Subject != "ops-1" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("secret", time.Minute)
	svc.now = func() time.Time { return fixedNow }
	tok, err := svc.IssueToken("ops-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return fixedNow.Add(2 * time.Minute) }
	if _, err := svc.ParseAccessToken(tok.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestTokenService_Invalid(t *testing.T) {
	svc := NewTokenService("secret", time.Minute)

	if _, err := svc.ParseAccessToken(""); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected invalid for empty token, got %v", err)
	}

	other, _ := NewTokenService("other", time.Minute).IssueToken("ops-1")
	if _, err := svc.ParseAccessToken(other.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	claims := Claims{
		OperatorID: "ops-1",
		TokenType:  "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "premium-estimator",
			Subject:   "ops-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected invalid token type, got %v", err)
	}

	disabled := NewTokenService("", time.Minute)
	if disabled.Enabled() {
		t.Fatalf("expected disabled without secret")
	}
	if _, err := disabled.IssueToken("ops-1"); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected issue to fail without secret, got %v", err)
	}
}
