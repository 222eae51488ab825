package main

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"pressroom/internal/articles"
	"pressroom/internal/auth"
	"pressroom/internal/logging"
)

type Site struct {
	articles    *articles.Store
	credentials *auth.Credentials
	sessions    *auth.Sessions
	gate        *auth.Gate
	csrf        *auth.CSRF
	log         logging.Logger
	templates   map[string]*template.Template
}

func NewSite(store *articles.Store, creds *auth.Credentials, sessions *auth.Sessions, gate *auth.Gate, csrf *auth.CSRF, log logging.Logger) *Site {
	return &Site{
		articles:    store,
		credentials: creds,
		sessions:    sessions,
		gate:        gate,
		csrf:        csrf,
		log:         log,
		templates:   loadTemplates(),
	}
}

func (s *Site) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(recoverPanics(s.log), logRequests(s.log), s.gate.Load)

	// Public routes
	r.HandleFunc("/", s.Home).Methods(http.MethodGet)
	r.HandleFunc("/articles/{id:[0-9]+}", s.Article).Methods(http.MethodGet)
	r.HandleFunc("/search", s.Search).Methods(http.MethodGet)
	r.HandleFunc(auth.LoginPath, s.Login).Methods(http.MethodGet, http.MethodPost)

	// Protected routes
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.gate.RequireAuth)
	admin.HandleFunc("", s.Dashboard).Methods(http.MethodGet, http.MethodPost)
	admin.HandleFunc("/logout", s.Logout).Methods(http.MethodPost)
	admin.HandleFunc("/articles/{id:[0-9]+}/edit", s.Edit).Methods(http.MethodGet, http.MethodPost)
	admin.HandleFunc("/articles/{id:[0-9]+}/delete", s.Delete).Methods(http.MethodPost)
	admin.HandleFunc("/change-password", s.ChangePassword).Methods(http.MethodGet, http.MethodPost)
	admin.HandleFunc("/users", s.Users).Methods(http.MethodGet, http.MethodPost)

	return r
}

// render executes page inside the base layout. The page is buffered so a
// template error can still become a clean 500.
func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if sc, ok := auth.CurrentUser(r.Context()); ok {
		data["CurrentUser"] = sc.Username
	}
	data["CSRFToken"] = s.csrf.Token(w, r)

	var buf bytes.Buffer
	if err := s.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		s.serverError(w, r, "rendering "+page, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Site) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error(r.Context(), msg, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
