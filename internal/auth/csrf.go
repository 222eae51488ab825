package auth

import (
	"crypto/subtle"
	"net/http"
)

// CSRF protection using the double-submit cookie pattern.

const (
	CSRFCookieName = "csrf"
	CSRFFieldName  = "csrf_token"
)

type CSRF struct {
	secureCookies bool
}

func NewCSRF(secureCookies bool) *CSRF {
	return &CSRF{secureCookies: secureCookies}
}

func (c *CSRF) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(SessionDuration.Seconds()),
	})
}

func csrfCookie(r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Token returns the existing CSRF token or sets a fresh one.
func (c *CSRF) Token(w http.ResponseWriter, r *http.Request) string {
	if token := csrfCookie(r); token != "" {
		return token
	}

	token, err := generateToken()
	if err != nil {
		return ""
	}
	c.setCookie(w, token)
	return token
}

func (c *CSRF) Valid(r *http.Request) bool {
	cookieToken := csrfCookie(r)
	formToken := r.FormValue(CSRFFieldName)

	if cookieToken == "" || formToken == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) == 1
}

// ParseForm parses the request form and checks the CSRF token, writing
// the error response itself when either fails.
func (c *CSRF) ParseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	if !c.Valid(r) {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}
