package session

import (
	"errors"
	"testing"
	"time"
)

func TestVerifierRoundTrip(t *testing.T) {
	token, err := Sign("secret", "0xAbC", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	address, err := NewVerifier("secret").WalletAddress(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if address != "0xAbC" {
		t.Fatalf("unexpected address %q", address)
	}
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	token, err := Sign("secret", "0xAbC", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewVerifier("other").WalletAddress(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	token, err := Sign("secret", "0xAbC", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewVerifier("secret").WalletAddress(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifierRejectsMissingAddress(t *testing.T) {
	token, err := Sign("secret", "", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewVerifier("secret").WalletAddress(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
