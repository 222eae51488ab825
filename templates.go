package main

import (
	"embed"
	"html/template"

	"pressroom/internal/sanitize"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	publicPreviewLength = 250
	adminPreviewLength  = 200
)

// trusted marks article content as safe for the templates. Content only
// ever reaches the database through articles.Store, which sanitizes it.
func trusted(content string) template.HTML {
	return template.HTML(content)
}

func loadTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	pages := []string{
		"home.html", "article.html", "login.html", "dashboard.html",
		"edit.html", "change_password.html", "users.html",
	}

	funcs := template.FuncMap{
		"preview": sanitize.TextPreview,
		"trusted": trusted,
	}

	for _, page := range pages {
		templates[page] = template.Must(
			template.New("").Funcs(funcs).ParseFS(templateFS,
				"templates/base.html",
				"templates/"+page,
			))
	}

	return templates
}
