package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"

	"pressroom/internal/logging"
)

func TestRequireAuth_NoSession(t *testing.T) {
	f := setupFixture(t)

	handlerCalled := false
	handler := f.gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "handler must not run without auth")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestRequireAuth_ValidSession(t *testing.T) {
	f := setupFixture(t)
	userID := f.createUser(t, "admin", "password")
	token, err := f.sessions.Issue(context.Background(), userID)
	require.NoError(t, err)

	var got SessionContext
	handler := f.gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SessionContext{Token: token, UserID: userID, Username: "admin"}, got)
}

func TestRequireAuth_ExpiredSession(t *testing.T) {
	f := setupFixture(t)
	userID := f.createUser(t, "admin", "password")
	token, err := f.sessions.Issue(context.Background(), userID)
	require.NoError(t, err)

	f.clock.Advance(SessionDuration)

	handler := f.gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for an expired session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestRequireAuth_StorageErrorFailsFast(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM admin_sessions").WillReturnError(errors.New("database is locked"))

	sessions := NewSessions(NewSQLiteSessionRepository(db), abtime.NewManualAtTime(epoch))
	gate := NewGate(sessions, logging.Discard(), false)

	handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when storage fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth_BehindLoadLooksUpOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM admin_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"token", "admin_user_id", "username", "expires_at"}))

	sessions := NewSessions(NewSQLiteSessionRepository(db), abtime.NewManualAtTime(epoch))
	gate := NewGate(sessions, logging.Discard(), false)

	handler := gate.Load(gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for an unknown session")
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsAuthenticated_BehindLoadReadsContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM admin_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"token", "admin_user_id", "username", "expires_at"}))

	sessions := NewSessions(NewSQLiteSessionRepository(db), abtime.NewManualAtTime(epoch))
	gate := NewGate(sessions, logging.Discard(), false)

	handler := gate.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, gate.IsAuthenticated(r))
		assert.False(t, gate.IsAuthenticated(r))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_AnonymousPassesThrough(t *testing.T) {
	f := setupFixture(t)

	called := false
	handler := f.gate.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := CurrentUser(r.Context())
		assert.False(t, ok)
		assert.False(t, f.gate.IsAuthenticated(r))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestIsAuthenticated(t *testing.T) {
	f := setupFixture(t)
	userID := f.createUser(t, "admin", "password")
	token, err := f.sessions.Issue(context.Background(), userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, f.gate.IsAuthenticated(req))

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	assert.True(t, f.gate.IsAuthenticated(req))

	require.NoError(t, f.sessions.Revoke(context.Background(), token))
	assert.False(t, f.gate.IsAuthenticated(req))
}

func TestCurrentUserID(t *testing.T) {
	_, ok := CurrentUserID(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), SessionContext{Token: "t", UserID: 42, Username: "admin"})
	id, ok := CurrentUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestSessionCookies(t *testing.T) {
	gate := NewGate(nil, logging.Discard(), true)

	w := httptest.NewRecorder()
	gate.SetSessionCookie(w, "abc")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int(SessionDuration.Seconds()), cookies[0].MaxAge)

	w = httptest.NewRecorder()
	gate.ClearSessionCookie(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCSRF(t *testing.T) {
	csrf := NewCSRF(false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	token := csrf.Token(w, req)
	assert.Len(t, token, 64)
	require.Len(t, w.Result().Cookies(), 1)

	tests := []struct {
		name   string
		cookie string
		form   string
		want   int
	}{
		{"matching", token, token, 0},
		{"missing cookie", "", token, http.StatusForbidden},
		{"missing field", token, "", http.StatusForbidden},
		{"mismatch", token, "other", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.form != "" {
				form.Set(CSRFFieldName, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			ok := csrf.ParseForm(w, req)
			if tt.want == 0 {
				assert.True(t, ok)
				return
			}
			assert.False(t, ok)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCSRF_ReusesExistingCookie(t *testing.T) {
	csrf := NewCSRF(false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
	w := httptest.NewRecorder()

	assert.Equal(t, "existing", csrf.Token(w, req))
	assert.Empty(t, w.Result().Cookies())
}
