package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Issue(Claims{UserID: 42, Email: "user@example.com", Plan: "explorer"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if claims.Plan != "explorer" {
		t.Fatalf("plan = %q", claims.Plan)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").Issue(Claims{UserID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenService("secret-b").Verify(token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret")
	for _, token := range []string{"", "not.a.token", "a.b"} {
		if _, err := svc.Verify(token); err == nil {
			t.Fatalf("garbage token %q must not verify", token)
		}
	}
}

func TestVerifyRejectsMissingUserID(t *testing.T) {
	svc := NewTokenService("test-secret")

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "user@example.com",
	})
	token, err := raw.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(token); err == nil {
		t.Fatal("token without an id claim must not verify")
	}
}

func TestVerifyRejectsUnexpectedAlgorithm(t *testing.T) {
	svc := NewTokenService("test-secret")

	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"id": 1})
	token, err := raw.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(token); err == nil {
		t.Fatal("only HS256 tokens may verify")
	}
}
