package api

import (
	"testing"
	"time"

	"taskboard-cli/internal/apitest"
)

func TestParseClaims(t *testing.T) {
	t.Parallel()

	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	tok := srv.Token(42)
	c, err := ParseClaims(tok)
	if err != nil {
		t.Fatalf("ParseClaims: %v", err)
	}
	if c.UserID != 42 || c.TokenType != "access" {
		t.Fatalf("unexpected claims: %#v", c)
	}
	issued := srv.Now()
	if c.Expired(issued) {
		t.Fatalf("token should be valid when issued")
	}
	if !c.Expired(issued.Add(srv.TokenTTL)) {
		t.Fatalf("token should be expired at exp")
	}
}

func TestParseClaims_Invalid(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"", "  ", "not-a-jwt", "a.b.c"} {
		if _, err := ParseClaims(tok); err == nil {
			t.Fatalf("expected error for %q", tok)
		}
	}
}

func TestClaims_NoExpNeverExpires(t *testing.T) {
	t.Parallel()

	if (Claims{}).Expired(time.Now()) {
		t.Fatalf("claims without exp must not expire")
	}
}
