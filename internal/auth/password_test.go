package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckPassword(t *testing.T) {
	hash := mustHashPassword("secret", bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct password", "secret", true},
		{"wrong password", "wrong", false},
		{"empty password", "", false},
		{"case differs", "Secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPassword(hash, tt.password)
			if got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashPassword_SaltedAndSelfDescribing(t *testing.T) {
	h1, err := HashPassword("secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	h2, _ := HashPassword("secret", bcrypt.MinCost)

	if h1 == h2 {
		t.Error("expected distinct salts for the same password")
	}
	if !strings.HasPrefix(h1, "$2a$04$") {
		t.Errorf("expected bcrypt prefix with cost 04, got %q", h1[:7])
	}
	if cost, _ := bcrypt.Cost([]byte(h1)); cost != bcrypt.MinCost {
		t.Errorf("expected cost %d, got %d", bcrypt.MinCost, cost)
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost); err == nil {
		t.Error("expected error for password over 72 bytes")
	}
}
