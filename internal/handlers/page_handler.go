package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/ternarybob/arbor"
)

//go:embed pages/*.html
var pageFS embed.FS

type PageHandler struct {
	logger      arbor.ILogger
	templates   *template.Template
	title       string
	clientDebug bool
}

func NewPageHandler(logger arbor.ILogger, title string, clientDebug bool) *PageHandler {
	templates := template.Must(template.ParseFS(pageFS, "pages/*.html"))

	return &PageHandler{
		logger:      logger,
		templates:   templates,
		title:       title,
		clientDebug: clientDebug,
	}
}

// ServePage creates a handler function for serving a specific page template
func (h *PageHandler) ServePage(templateName string, pageName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && pageName == "canvas" {
			http.NotFound(w, r)
			return
		}

		data := map[string]interface{}{
			"Page":        pageName,
			"Title":       h.title,
			"ClientDebug": h.clientDebug,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.templates.ExecuteTemplate(w, templateName, data); err != nil {
			h.logger.Error().
				Err(err).
				Str("template", templateName).
				Msg("Failed to render page")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
