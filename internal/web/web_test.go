package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/config"
	"github.com/hpungsan/grist/internal/synthesis"
	"github.com/hpungsan/grist/internal/vaultsearch"
)

type noSearch struct{}

func (noSearch) Search(query string, limit int, minScore float64, fallbackGlob string) []vaultsearch.Hit {
	return nil
}

func setupTest(t *testing.T) (*Handlers, *backlog.Store) {
	t.Helper()

	vault := t.TempDir()
	cfg := config.DefaultConfig()
	store := backlog.NewStore(filepath.Join(vault, cfg.BacklogFile))
	engine := synthesis.NewEngine(cfg, vault, store, noSearch{})

	return &Handlers{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		version: "test",
	}, store
}

func TestHandleBacklog(t *testing.T) {
	h, store := setupTest(t)

	idea := backlog.Idea{
		ID:          "idea-001",
		Title:       "Render backlog in the browser",
		Description: "Read-only HTML rendering of the queue.",
		Category:    "ux",
		Score:       72,
		Captured:    "2026-08-20",
	}
	if err := store.Insert(idea); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleBacklog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Render backlog in the browser") {
		t.Errorf("body missing idea title")
	}
	if !strings.Contains(body, "<h1") {
		t.Errorf("body does not look like rendered markdown")
	}
}

func TestHandleBacklogEmptyVault(t *testing.T) {
	h, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleBacklog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No ideas captured yet") {
		t.Errorf("empty vault placeholder missing")
	}
}

func TestHandleStats(t *testing.T) {
	h, store := setupTest(t)

	idea := backlog.Idea{
		ID:          "idea-001",
		Title:       "Stats endpoint smoke test",
		Description: "Exists so counts are non-zero.",
		Category:    "system",
		Score:       40,
		Captured:    "2026-08-25",
	}
	if err := store.Insert(idea); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.HandleStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if total, _ := payload["total_ideas"].(float64); int(total) != 1 {
		t.Errorf("total_ideas = %v, want 1", payload["total_ideas"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	h, _ := setupTest(t)

	srv := NewServer(h.cfg, h.store, h.engine, "test", "127.0.0.1", 0)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("missing Content-Security-Policy header")
	}
}
