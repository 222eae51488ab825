package auth

import "time"

type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a persisted login. The token is the primary key; a user may
// hold any number of sessions at once.
type Session struct {
	Token     string
	UserID    int64
	Username  string
	ExpiresAt time.Time
}
