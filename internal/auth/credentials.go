package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/abtime"
)

// Credentials hashes and verifies admin passwords and manages admin
// accounts.
type Credentials struct {
	users UserRepository
	cost  int
	clock abtime.AbstractTime

	// dummyHash is compared against when the username is unknown so both
	// login failure paths pay for one bcrypt comparison.
	dummyHash string
}

func NewCredentials(users UserRepository, cost int, clock abtime.AbstractTime) *Credentials {
	return &Credentials{
		users:     users,
		cost:      cost,
		clock:     clock,
		dummyHash: mustHashPassword("pressroom-dummy-password", cost),
	}
}

func (c *Credentials) Hash(password string) (string, error) {
	return HashPassword(password, c.cost)
}

func (c *Credentials) Verify(password, hash string) bool {
	return CheckPassword(hash, password)
}

// Authenticate returns the user for a matching username/password pair and
// ErrInvalidCredentials otherwise. Other errors come from storage.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (*AdminUser, error) {
	user, err := c.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		c.Verify(password, c.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !c.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateUser stores a new admin. It reports false, with no error, when the
// exact username is already taken.
func (c *Credentials) CreateUser(ctx context.Context, username, password string) (bool, error) {
	existing, err := c.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hash, err := c.Hash(password)
	if err != nil {
		return false, err
	}

	if _, err := c.users.Create(ctx, username, hash, c.clock.Now()); err != nil {
		// Lost a race with a concurrent insert of the same name.
		if errors.Is(err, errDuplicateUsername) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ChangePassword reports false when the user is unknown or current does
// not verify. The stored hash is only touched on success.
func (c *Credentials) ChangePassword(ctx context.Context, userID int64, current, next string) (bool, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil || !c.Verify(current, user.PasswordHash) {
		return false, nil
	}

	hash, err := c.Hash(next)
	if err != nil {
		return false, err
	}
	if err := c.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Credentials) ListUsers(ctx context.Context) ([]AdminUser, error) {
	return c.users.List(ctx)
}

// EnsureUser creates the bootstrap admin when the table is empty. It
// reports whether an account was created.
func (c *Credentials) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	n, err := c.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	created, err := c.CreateUser(ctx, username, password)
	if err != nil {
		return false, fmt.Errorf("creating bootstrap admin: %w", err)
	}
	return created, nil
}
