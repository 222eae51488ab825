package auth

import (
	"context"
	"net/http"

	"pressroom/internal/logging"
)

const (
	SessionCookieName = "session"
	LoginPath         = "/admin/login"
)

// SessionContext is the identity bound to a request once its session
// cookie has been validated. Handlers read it from the request context
// instead of looking the session up again.
type SessionContext struct {
	Token    string
	UserID   int64
	Username string
}

type sessionContextKey struct{}

// resolution records that a request's cookie was already checked, so that
// stacked middleware does not look the session up twice.
type resolution struct {
	sc SessionContext
	ok bool
}

func WithSession(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, resolution{sc: sc, ok: true})
}

func withAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, resolution{})
}

func resolved(ctx context.Context) (resolution, bool) {
	res, ok := ctx.Value(sessionContextKey{}).(resolution)
	return res, ok
}

// CurrentUser returns the identity validated for this request, if any.
func CurrentUser(ctx context.Context) (SessionContext, bool) {
	res, _ := resolved(ctx)
	return res.sc, res.ok
}

func CurrentUserID(ctx context.Context) (int64, bool) {
	sc, ok := CurrentUser(ctx)
	return sc.UserID, ok
}

// Gate enforces authentication per request on top of Sessions.
type Gate struct {
	sessions      *Sessions
	log           logging.Logger
	secureCookies bool
}

func NewGate(sessions *Sessions, log logging.Logger, secureCookies bool) *Gate {
	return &Gate{sessions: sessions, log: log, secureCookies: secureCookies}
}

// SessionToken returns the raw session cookie value, or "".
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (g *Gate) resolve(r *http.Request) (*SessionContext, error) {
	token := SessionToken(r)
	if token == "" {
		return nil, nil
	}

	session, err := g.sessions.Lookup(r.Context(), token)
	if err != nil || session == nil {
		return nil, err
	}
	return &SessionContext{Token: session.Token, UserID: session.UserID, Username: session.Username}, nil
}

// Load validates the session cookie, when there is one, and attaches the
// resulting SessionContext to the request. It never redirects. Storage
// errors end the request with a 500. A request Load has already seen,
// authenticated or not, is passed through without another lookup.
func (g *Gate) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := resolved(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		sc, err := g.resolve(r)
		if err != nil {
			g.log.Error(r.Context(), "validating session", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if sc != nil {
			r = r.WithContext(WithSession(r.Context(), *sc))
		} else {
			r = r.WithContext(withAnonymous(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

// IsAuthenticated reports whether the request carries a valid session.
// Requests that went through Load are answered from the context.
func (g *Gate) IsAuthenticated(r *http.Request) bool {
	if res, ok := resolved(r.Context()); ok {
		return res.ok
	}
	sc, err := g.resolve(r)
	if err != nil {
		g.log.Error(r.Context(), "validating session", "error", err)
		return false
	}
	return sc != nil
}

// RequireAuth redirects unauthenticated requests to the login page and
// does not call next for them. Behind Load it only reads the context.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return g.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (g *Gate) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionDuration.Seconds()),
	})
}

func (g *Gate) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
