package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/livepoll/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestTokensRoundTrip(t *testing.T) {
	tokens, err := NewTokens(secret, time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	want := domain.Identity{UserID: "u1", Username: "alice"}
	tok, err := tokens.Issue(want)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := tokens.VerifyCredential(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTokensRejectForgeries(t *testing.T) {
	tokens, _ := NewTokens(secret, time.Hour)
	other, _ := NewTokens([]byte(strings.Repeat("x", 32)), time.Hour)
	foreign, _ := other.Issue(domain.Identity{UserID: "u1", Username: "alice"})
	valid, _ := tokens.Issue(domain.Identity{UserID: "u1", Username: "alice"})

	for name, tok := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"foreign": foreign,
		"tamper":  valid[:len(valid)-2] + "xx",
	} {
		if _, err := tokens.VerifyCredential(tok); !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("%s: expected invalid_credential, got %v", name, err)
		}
	}
}

func TestTokensExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps past the token ttl")
	}
	tokens, _ := NewTokens(secret, time.Second)
	tok, _ := tokens.Issue(domain.Identity{UserID: "u1", Username: "alice"})
	time.Sleep(2100 * time.Millisecond)
	if _, err := tokens.VerifyCredential(tok); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestNewTokensValidates(t *testing.T) {
	if _, err := NewTokens([]byte("short"), time.Hour); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewTokens(secret, 0); err == nil {
		t.Fatal("expected zero ttl to be rejected")
	}
}

func TestPasswords(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)
	if _, err := p.Hash("short"); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected short password to be rejected, got %v", err)
	}
	h, err := p.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !p.Compare(h, "correct horse") {
		t.Fatal("expected password to match")
	}
	if p.Compare(h, "battery staple") {
		t.Fatal("expected wrong password to fail")
	}
}
