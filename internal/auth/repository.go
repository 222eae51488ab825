package auth

import (
	"context"
	"time"
)

// UserRepository persists admin accounts. Lookups return (nil, nil) when no
// row matches.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string, createdAt time.Time) (int64, error)
	GetByUsername(ctx context.Context, username string) (*AdminUser, error)
	GetByID(ctx context.Context, id int64) (*AdminUser, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context) ([]AdminUser, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository persists sessions. Every method is a single statement.
type SessionRepository interface {
	Insert(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	// Exists reports whether (token, userID) is stored with expires_at > now.
	Exists(ctx context.Context, token string, userID int64, now time.Time) (bool, error)
	// Find returns the live session for token, or (nil, nil).
	Find(ctx context.Context, token string, now time.Time) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
