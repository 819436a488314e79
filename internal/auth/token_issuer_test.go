package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestIssuer(secret string) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "corkboard-auth",
		Audience:      "corkboard-api",
		TokenTTL:      30 * time.Minute,
	})
}

func TestTokenIssuerIssuesSessionTokens(t *testing.T) {
	issuer := newTestIssuer("super-secret")

	tokenString, expiresIn, err := issuer.IssueSessionToken(context.Background(), "user-123", "a@x.com")
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}

	if expiresIn <= 0 {
		t.Fatalf("expected positive expiry seconds, got %d", expiresIn)
	}

	parser := jwt.Parser{}
	claims := &sessionTokenClaims{}

	_, err = parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("unexpected email %s", claims.Email)
	}
	if claims.Issuer != "corkboard-auth" {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "corkboard-api" {
		t.Fatalf("unexpected audience %#v", claims.Audience)
	}
	if claims.ID == "" {
		t.Fatalf("expected token identifier to be set")
	}
}

func TestTokenIssuerRejectsMissingSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Issuer:   "corkboard-auth",
		Audience: "corkboard-api",
	})
	if _, _, err := issuer.IssueSessionToken(context.Background(), "user-1", ""); err == nil {
		t.Fatalf("expected issuance error for missing secret")
	}
}

func TestTokenIssuerValidatesIssuedTokens(t *testing.T) {
	issuer := newTestIssuer("another-secret")

	tokenString, _, err := issuer.IssueSessionToken(context.Background(), "user-321", "b@x.com")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	claims, err := issuer.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("expected validation success: %v", err)
	}
	if claims.UserID != "user-321" {
		t.Fatalf("unexpected subject %s", claims.UserID)
	}
	if claims.Email != "b@x.com" {
		t.Fatalf("unexpected email %s", claims.Email)
	}

	if _, err := issuer.ValidateToken("invalid.token"); err == nil {
		t.Fatalf("expected validation to fail for malformed token")
	}
}

func TestTokenIssuerRejectsRevokedTokens(t *testing.T) {
	issuer := newTestIssuer("logout-secret")

	tokenString, _, err := issuer.IssueSessionToken(context.Background(), "user-9", "c@x.com")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	if err := issuer.RevokeToken(tokenString); err != nil {
		t.Fatalf("unexpected revoke error: %v", err)
	}
	if _, err := issuer.ValidateToken(tokenString); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	// a second token for the same user is unaffected.
	otherToken, _, err := issuer.IssueSessionToken(context.Background(), "user-9", "c@x.com")
	if err != nil {
		t.Fatalf("unexpected error issuing second token: %v", err)
	}
	if _, err := issuer.ValidateToken(otherToken); err != nil {
		t.Fatalf("expected second token to stay valid: %v", err)
	}
}

func TestRevocationListForgetsExpiredEntries(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	list := NewRevocationList(func() time.Time { return current })

	list.Revoke("token-1", current.Add(time.Minute))
	if !list.IsRevoked("token-1") {
		t.Fatalf("expected token-1 to be revoked")
	}

	current = current.Add(2 * time.Minute)
	if list.IsRevoked("token-1") {
		t.Fatalf("expected revocation to lapse with token expiry")
	}
}
