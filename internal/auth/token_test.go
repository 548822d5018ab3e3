package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateToken("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expiresAt) <= 4*time.Minute {
		t.Fatalf("expiry %v too early", expiresAt)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.SubjectID != "user-1" {
		t.Fatalf("subject = %q", claims.SubjectID)
	}
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken("user-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewTokenManager("other", 5).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}

	expired := NewTokenManager("secret", 5)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.GenerateToken("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.ParseToken(old); err == nil {
		t.Fatal("expired token accepted")
	}

	if _, _, err := tm.GenerateToken(""); err == nil {
		t.Fatal("empty subject accepted")
	}
	if _, err := tm.ParseToken("not-a-jwt"); err == nil {
		t.Fatal("garbage accepted")
	}
}
