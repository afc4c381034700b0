package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/config"
	"github.com/hpungsan/grist/internal/synthesis"
)

// Handlers contains the dependencies for the web view handlers.
type Handlers struct {
	cfg     *config.Config
	store   *backlog.Store
	engine  *synthesis.Engine
	version string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Backlog</title>
<style>
body { max-width: 52rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.5; }
footer { margin-top: 3rem; color: #888; font-size: 0.8rem; }
</style>
</head>
<body>
{{.Body}}
<footer>grist {{.Version}}</footer>
</body>
</html>
`))

type pageData struct {
	Body    template.HTML
	Version string
}

// HandleBacklog renders the backlog document as HTML.
func (h *Handlers) HandleBacklog(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.Raw()
	if err != nil {
		http.Error(w, "failed to read backlog", http.StatusInternalServerError)
		return
	}
	if raw == "" {
		raw = "# Backlog\n\n*No ideas captured yet.*\n"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{
		Body:    renderMarkdown(raw),
		Version: h.version,
	}); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// HandleStats returns the backlog stats payload as JSON.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
