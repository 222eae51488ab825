package main

import (
	"errors"
	"fmt"
	"net/http"

	"pressroom/internal/auth"
)

func (s *Site) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Login"})
		return
	}

	if !s.csrf.ParseForm(w, r) {
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := s.credentials.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.log.Warn(r.Context(), "failed login", "username", username)
		s.render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Title":    "Login",
			"Error":    "Invalid username or password.",
			"Username": username,
		})
		return
	}
	if err != nil {
		s.serverError(w, r, "authenticating", err)
		return
	}

	token, err := s.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, "creating session", err)
		return
	}

	s.gate.SetSessionCookie(w, token)
	s.log.Info(r.Context(), "admin logged in", "user_id", user.ID)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Site) Logout(w http.ResponseWriter, r *http.Request) {
	if !s.csrf.ParseForm(w, r) {
		return
	}

	if sc, ok := auth.CurrentUser(r.Context()); ok {
		if err := s.sessions.Revoke(r.Context(), sc.Token); err != nil {
			s.log.Error(r.Context(), "revoking session", "error", err)
		}
	}

	s.gate.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var passwordChangeMessages = map[error]string{
	auth.ErrFieldsRequired:           "All fields are required.",
	auth.ErrPasswordMismatch:         "New password and confirm password do not match.",
	auth.ErrPasswordTooShort:         "New password must be at least 6 characters long.",
	auth.ErrPasswordTooLong:          "New password must be at most 72 bytes long.",
	auth.ErrCurrentPasswordIncorrect: "Current password is incorrect.",
}

func (s *Site) ChangePassword(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "Change password"}

	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "change_password.html", data)
		return
	}

	if !s.csrf.ParseForm(w, r) {
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	err := auth.ValidatePasswordChange(current, next, confirm)
	if err == nil {
		userID, _ := auth.CurrentUserID(r.Context())
		var changed bool
		changed, err = s.credentials.ChangePassword(r.Context(), userID, current, next)
		if err != nil {
			s.serverError(w, r, "changing password", err)
			return
		}
		if !changed {
			err = auth.ErrCurrentPasswordIncorrect
		}
	}

	if err != nil {
		data["Error"] = passwordChangeMessages[err]
		s.render(w, r, http.StatusBadRequest, "change_password.html", data)
		return
	}

	data["Success"] = "Password changed successfully!"
	s.render(w, r, http.StatusOK, "change_password.html", data)
}

var newUserMessages = map[error]string{
	auth.ErrFieldsRequired:   "All fields are required.",
	auth.ErrPasswordMismatch: "Password and confirm password do not match.",
	auth.ErrUsernameTooShort: "Username must be at least 3 characters long.",
	auth.ErrPasswordTooShort: "Password must be at least 6 characters long.",
	auth.ErrPasswordTooLong:  "Password must be at most 72 bytes long.",
	auth.ErrUsernameTaken:    "Username already exists. Please choose a different username.",
}

// Users lists admin accounts and creates new ones.
func (s *Site) Users(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "Admin users"}
	status := http.StatusOK

	if r.Method == http.MethodPost {
		if !s.csrf.ParseForm(w, r) {
			return
		}

		username := r.FormValue("username")
		err := auth.ValidateNewUser(username, r.FormValue("password"), r.FormValue("confirm_password"))
		if err == nil {
			var created bool
			created, err = s.credentials.CreateUser(r.Context(), username, r.FormValue("password"))
			if err != nil {
				s.serverError(w, r, "creating admin user", err)
				return
			}
			if !created {
				err = auth.ErrUsernameTaken
			}
		}

		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			status = http.StatusConflict
			data["Error"] = newUserMessages[err]
			data["Username"] = username
		case err != nil:
			status = http.StatusBadRequest
			data["Error"] = newUserMessages[err]
			data["Username"] = username
		default:
			s.log.Info(r.Context(), "admin user created", "username", username)
			data["Success"] = fmt.Sprintf("Admin user '%s' created successfully!", username)
		}
	}

	users, err := s.credentials.ListUsers(r.Context())
	if err != nil {
		s.serverError(w, r, "listing admin users", err)
		return
	}
	data["Users"] = users

	s.render(w, r, status, "users.html", data)
}
