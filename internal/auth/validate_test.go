package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePasswordChange(t *testing.T) {
	tests := []struct {
		name                   string
		current, next, confirm string
		want                   error
	}{
		{"ok", "old", "newpass", "newpass", nil},
		{"missing current", "", "newpass", "newpass", ErrFieldsRequired},
		{"missing confirm", "old", "newpass", "", ErrFieldsRequired},
		{"mismatch", "old", "newpass", "newpasz", ErrPasswordMismatch},
		{"too short", "old", "12345", "12345", ErrPasswordTooShort},
		{"exactly six", "old", "123456", "123456", nil},
		{"six runes", "old", "éééééé", "éééééé", nil},
		{"too long", "old", strings.Repeat("x", 73), strings.Repeat("x", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePasswordChange(tt.current, tt.next, tt.confirm))
		})
	}
}

func TestValidateNewUser(t *testing.T) {
	tests := []struct {
		name                        string
		username, password, confirm string
		want                        error
	}{
		{"ok", "bob", "secret1", "secret1", nil},
		{"missing username", "", "secret1", "secret1", ErrFieldsRequired},
		{"missing password", "bob", "", "secret1", ErrFieldsRequired},
		{"mismatch", "bob", "secret1", "secret2", ErrPasswordMismatch},
		{"username too short", "bo", "secret1", "secret1", ErrUsernameTooShort},
		{"password too short", "bob", "short", "short", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateNewUser(tt.username, tt.password, tt.confirm))
		})
	}
}
