package utils

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "amina", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got := claims["username"]; got != "amina" {
		t.Errorf("username claim = %v, want amina", got)
	}
	if got := claims["role"]; got != "admin" {
		t.Errorf("role claim = %v, want admin", got)
	}
	// MapClaims decode numbers as float64.
	if got, ok := claims["user_id"].(float64); !ok || uint(got) != 7 {
		t.Errorf("user_id claim = %v, want 7", claims["user_id"])
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	if _, err := VerifyToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	original := Secret
	Secret = []byte("first-secret")
	token, err := GenerateToken(1, "user", "user")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Secret = []byte("second-secret")
	defer func() { Secret = original }()

	if _, err := VerifyToken(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}
