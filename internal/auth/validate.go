package auth

import "unicode/utf8"

const (
	MinPasswordLength = 6
	MinUsernameLength = 3

	// bcrypt ignores, and newer x/crypto rejects, input past 72 bytes.
	maxPasswordBytes = 72
)

func checkNewPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidatePasswordChange checks the change-password form before anything
// touches storage.
func ValidatePasswordChange(current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return ErrFieldsRequired
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	return checkNewPassword(next)
}

// ValidateNewUser checks the create-admin form before anything touches
// storage.
func ValidateNewUser(username, password, confirm string) error {
	if username == "" || password == "" || confirm == "" {
		return ErrFieldsRequired
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	return checkNewPassword(password)
}
