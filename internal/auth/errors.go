package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so the login page cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrFieldsRequired           = errors.New("all fields are required")
	ErrPasswordMismatch         = errors.New("passwords do not match")
	ErrPasswordTooShort         = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong          = errors.New("password must be at most 72 bytes long")
	ErrUsernameTooShort         = errors.New("username must be at least 3 characters long")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrUsernameTaken            = errors.New("username already exists")
)
