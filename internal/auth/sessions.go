package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/thejerf/abtime"
)

const (
	SessionDuration = 24 * time.Hour

	// tokenBytes of crypto/rand output give 256 bits per token; collisions
	// are not retried.
	tokenBytes = 32
)

// Sessions issues, validates and revokes opaque session tokens. All state
// lives in the repository, so any number of processes can share it.
type Sessions struct {
	repo  SessionRepository
	clock abtime.AbstractTime
	ttl   time.Duration
}

func NewSessions(repo SessionRepository, clock abtime.AbstractTime) *Sessions {
	return &Sessions{repo: repo, clock: clock, ttl: SessionDuration}
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Issue stores a new session for userID that expires SessionDuration from
// now and returns its token.
func (s *Sessions) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	if err := s.repo.Insert(ctx, token, userID, s.clock.Now().Add(s.ttl)); err != nil {
		return "", err
	}
	return token, nil
}

// Validate reports whether token is bound to userID and has not expired.
// A session expiring at exactly now is invalid.
func (s *Sessions) Validate(ctx context.Context, token string, userID int64) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.repo.Exists(ctx, token, userID, s.clock.Now())
}

// Lookup returns the live session for token, or nil.
func (s *Sessions) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.repo.Find(ctx, token, s.clock.Now())
}

// Revoke deletes the session. Unknown tokens are not an error.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}

// SweepExpired deletes every session with expires_at <= now and returns
// how many went. It is advisory: a request may still validate a session
// the sweep is about to remove.
func (s *Sessions) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.clock.Now())
}
