package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"pressroom/internal/articles"
)

func articleID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// articleLink is the public search URL for an article title.
func articleLink(title string) string {
	return "/search?" + url.Values{"search": {title}}.Encode()
}

func (s *Site) Home(w http.ResponseWriter, r *http.Request) {
	list, err := s.articles.List(r.Context())
	if err != nil {
		s.serverError(w, r, "listing articles", err)
		return
	}

	s.render(w, r, http.StatusOK, "home.html", map[string]any{
		"Title":         "Articles",
		"Articles":      list,
		"PreviewLength": publicPreviewLength,
	})
}

func (s *Site) Article(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(r)
	if !ok {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	article, err := s.articles.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "loading article", err)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, r, http.StatusOK, "article.html", map[string]any{
		"Title":   article.Title,
		"Article": article,
	})
}

// Search shows the article whose title matches the search term exactly.
func (s *Site) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("search"))
	if term == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	article, err := s.articles.GetByTitle(r.Context(), term)
	if err != nil {
		s.serverError(w, r, "searching articles", err)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, r, http.StatusOK, "article.html", map[string]any{
		"Title":   article.Title,
		"Article": article,
	})
}

func (s *Site) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "Dashboard"}
	status := http.StatusOK

	if r.Method == http.MethodPost {
		if !s.csrf.ParseForm(w, r) {
			return
		}

		title := r.FormValue("title")
		content := r.FormValue("content")

		article, err := s.articles.Create(r.Context(), title, content)
		switch {
		case errors.Is(err, articles.ErrInvalidArticle):
			status = http.StatusBadRequest
			data["Error"] = "Failed to create article. Title and content are required."
			data["FormTitle"] = title
			data["FormContent"] = content
		case err != nil:
			s.serverError(w, r, "creating article", err)
			return
		default:
			s.log.Info(r.Context(), "article created", "article_id", article.ID)
			data["Success"] = "Article created successfully!"
			data["ArticleLink"] = articleLink(article.Title)
		}
	} else {
		switch {
		case r.URL.Query().Get("deleted") == "1":
			data["Success"] = "Article deleted."
		case r.URL.Query().Get("error") == "delete_failed":
			data["Error"] = "Failed to delete article."
		}
	}

	list, err := s.articles.List(r.Context())
	if err != nil {
		s.serverError(w, r, "listing articles", err)
		return
	}
	data["Articles"] = list
	data["PreviewLength"] = adminPreviewLength

	s.render(w, r, status, "dashboard.html", data)
}

func (s *Site) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(r)
	if !ok {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	article, err := s.articles.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "loading article", err)
		return
	}
	if article == nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	data := map[string]any{"Title": "Edit " + article.Title, "Article": article}

	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "edit.html", data)
		return
	}

	if !s.csrf.ParseForm(w, r) {
		return
	}

	err = s.articles.Update(r.Context(), id, r.FormValue("title"), r.FormValue("content"))
	switch {
	case errors.Is(err, articles.ErrNotFound):
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	case errors.Is(err, articles.ErrInvalidArticle):
		data["Error"] = "Failed to update article. Title and content are required."
		s.render(w, r, http.StatusBadRequest, "edit.html", data)
		return
	case err != nil:
		s.serverError(w, r, "updating article", err)
		return
	}

	updated, err := s.articles.Get(r.Context(), id)
	if err != nil || updated == nil {
		s.serverError(w, r, "reloading article", err)
		return
	}

	data["Title"] = "Edit " + updated.Title
	data["Article"] = updated
	data["Success"] = "Article updated successfully!"
	s.render(w, r, http.StatusOK, "edit.html", data)
}

func (s *Site) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(r)
	if !ok {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	if !s.csrf.ParseForm(w, r) {
		return
	}

	if err := s.articles.Delete(r.Context(), id); err != nil {
		s.log.Error(r.Context(), "deleting article", "article_id", id, "error", err)
		http.Redirect(w, r, "/admin?error=delete_failed", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin?deleted=1", http.StatusSeeOther)
}
