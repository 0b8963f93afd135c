package service

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	iss, err := NewTokenIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	tok, err := iss.Generate("player-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := iss.Parse(tok)
	if err != nil || id != "player-1" {
		t.Fatalf("parse = %q, %v", id, err)
	}
}

func TestTokenIssuerRejects(t *testing.T) {
	iss, _ := NewTokenIssuer("secret", time.Hour)
	other, _ := NewTokenIssuer("other", time.Hour)
	tok, _ := other.Generate("p")
	if _, err := iss.Parse(tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign secret: %v", err)
	}

	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := iss.Generate("p")
	iss.now = time.Now
	if _, err := iss.Parse(old); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: %v", err)
	}

	if _, err := iss.Parse("garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage: %v", err)
	}
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Fatal("empty secret accepted")
	}
}
