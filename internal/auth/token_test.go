package auth

import (
	"testing"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken("u-1", domain.UserRoleManager)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expires.IsZero() {
		t.Fatal("expiry not set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "u-1" || claims.Role != domain.UserRoleManager {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken("u-1", domain.UserRoleEmployee)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("two", 5).ParseToken(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken("", domain.UserRoleEmployee)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expected missing subject error")
	}
}
