package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressroom/internal/auth"
	"pressroom/internal/logging"
)

func TestSweepSessions(t *testing.T) {
	ts := setupTestSite(t)
	ts.login(t, "admin", "password")
	ts.clock.Advance(auth.SessionDuration)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepSessions(ctx, ts.site.sessions, logging.Discard(), ts.clock, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var n int
		if err := ts.db.QueryRow("SELECT COUNT(*) FROM admin_sessions").Scan(&n); err != nil {
			return false
		}
		return n == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
