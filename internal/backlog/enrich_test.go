package backlog

import (
	"strings"
	"testing"
	"time"

	gristerrors "github.com/hpungsan/grist/internal/errors"
)

func TestEnrich_AppendOnly(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s, Idea{
		ID: "idea-001", Title: "Memory hooks", Category: "knowledge",
		Description: "Persist context automatically.", Score: 80, Captured: "2026-07-01",
	})

	if err := s.Enrich("idea-001", "first evidence", "Changelog v1.2"); err != nil {
		t.Fatalf("first Enrich failed: %v", err)
	}
	if err := s.Enrich("idea-001", "second evidence", "Session Learning 2026-08-30"); err != nil {
		t.Fatalf("second Enrich failed: %v", err)
	}

	content, _ := s.Raw()
	firstIdx := strings.Index(content, "first evidence")
	secondIdx := strings.Index(content, "second evidence")
	if firstIdx == -1 || secondIdx == -1 {
		t.Fatalf("document missing evidence lines:\n%s", content)
	}
	if firstIdx > secondIdx {
		t.Error("evidence lines out of order: append must preserve history")
	}

	ideas, err := s.Parse()
	if err != nil {
		t.Fatal(err)
	}
	got := ideas[0]
	if got.Title != "Memory hooks" || got.Score != 80 {
		t.Errorf("core fields changed by enrichment: %+v", got)
	}
	if len(got.Enrichments) != 2 {
		t.Fatalf("parsed %d enrichments, want 2", len(got.Enrichments))
	}
	if got.Enrichments[0].Evidence != "first evidence" {
		t.Errorf("Enrichments[0].Evidence = %q", got.Enrichments[0].Evidence)
	}
	if got.Enrichments[1].Source != "Session Learning 2026-08-30" {
		t.Errorf("Enrichments[1].Source = %q", got.Enrichments[1].Source)
	}

	today := time.Now().Format("2006-01-02")
	if got.Enrichments[0].Date != today {
		t.Errorf("Enrichments[0].Date = %q, want %q", got.Enrichments[0].Date, today)
	}
}

func TestEnrich_NotFound(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s, Idea{ID: "idea-001", Title: "Exists", Category: "system"})

	err := s.Enrich("idea-042", "evidence", "source")
	if !gristerrors.Is(err, gristerrors.ErrNotFound) {
		t.Errorf("Enrich(unknown id) error = %v, want NOT_FOUND", err)
	}
}

func TestEnrich_MissingDocument(t *testing.T) {
	s := newTestStore(t)

	err := s.Enrich("idea-001", "evidence", "source")
	if !gristerrors.Is(err, gristerrors.ErrNotFound) {
		t.Errorf("Enrich on missing document = %v, want NOT_FOUND", err)
	}
}

func TestEnrich_DoesNotLeakIntoNextEntry(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s, Idea{ID: "idea-001", Title: "First", Category: "system", Score: 70, Captured: "2026-08-01"})
	mustInsert(t, s, Idea{ID: "idea-002", Title: "Second", Category: "system", Score: 70, Captured: "2026-08-02"})

	if err := s.Enrich("idea-002", "targeted evidence", "test"); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	ideas, err := s.Parse()
	if err != nil {
		t.Fatal(err)
	}
	for _, idea := range ideas {
		switch idea.ID {
		case "idea-001":
			if len(idea.Enrichments) != 0 {
				t.Errorf("idea-001 gained %d enrichments, want 0", len(idea.Enrichments))
			}
		case "idea-002":
			if len(idea.Enrichments) != 1 {
				t.Errorf("idea-002 has %d enrichments, want 1", len(idea.Enrichments))
			}
		}
	}
}
