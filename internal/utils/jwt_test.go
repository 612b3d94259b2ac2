package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	SetJWTSecret("test-secret-key-for-testing")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(1, "moderator1", "admin", 24)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}

	token2, _ := GenerateToken(2, "moderator2", "moderator", 24)
	if token == token2 {
		t.Error("different moderators should produce different tokens")
	}
}

func TestParseToken(t *testing.T) {
	token, _ := GenerateToken(42, "alice", "moderator", 24)

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.ModeratorID != 42 {
		t.Errorf("ModeratorID = %d, expected 42", claims.ModeratorID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, expected %q", claims.Username, "alice")
	}
	if claims.Role != "moderator" {
		t.Errorf("Role = %q, expected %q", claims.Role, "moderator")
	}
	if claims.Issuer != "modsentry" {
		t.Errorf("Issuer = %q, expected modsentry", claims.Issuer)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		if _, err := ParseToken(token); err == nil {
			t.Errorf("ParseToken(%q) should return error", token)
		}
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetJWTSecret("original-secret")
	token, _ := GenerateToken(1, "alice", "admin", 24)

	SetJWTSecret("different-secret")
	_, err := ParseToken(token)

	SetJWTSecret("test-secret-key-for-testing")

	if err == nil {
		t.Error("ParseToken should fail with wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, _ := GenerateToken(1, "alice", "admin", -1)

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken should reject an expired token")
	}
}

func TestParseToken_ForeignIssuer(t *testing.T) {
	claims := Claims{
		ModeratorID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-for-testing"))

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken should reject a token from another issuer")
	}
}

func TestGenerateToken_Expiration(t *testing.T) {
	token, _ := GenerateToken(1, "alice", "admin", 1)
	claims, _ := ParseToken(token)

	expiresAt := claims.ExpiresAt.Time
	now := time.Now()

	if expiresAt.Before(now) {
		t.Error("token should not be expired immediately")
	}

	diff := expiresAt.Sub(now.Add(time.Hour))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiration time is off by more than 1 minute: %v", diff)
	}
}
