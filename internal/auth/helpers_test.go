package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
	"golang.org/x/crypto/bcrypt"

	"pressroom/internal/database"
	"pressroom/internal/logging"
)

var epoch = time.Unix(1700000000, 0)

type fixture struct {
	db       *sql.DB
	clock    *abtime.ManualTime
	creds    *Credentials
	sessions *Sessions
	gate     *Gate
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := abtime.NewManualAtTime(epoch)
	sessions := NewSessions(NewSQLiteSessionRepository(db), clock)
	return &fixture{
		db:       db,
		clock:    clock,
		creds:    NewCredentials(NewSQLiteUserRepository(db), bcrypt.MinCost, clock),
		sessions: sessions,
		gate:     NewGate(sessions, logging.Discard(), false),
	}
}

func (f *fixture) createUser(t *testing.T, username, password string) int64 {
	t.Helper()
	ok, err := f.creds.CreateUser(context.Background(), username, password)
	require.NoError(t, err)
	require.True(t, ok)

	user, err := NewSQLiteUserRepository(f.db).GetByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.ID
}

func (f *fixture) sessionCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM admin_sessions").Scan(&n))
	return n
}
