package backlog

import (
	"strings"
	"testing"
)

// sectionOf returns the heading of the priority section containing ideaID.
func sectionOf(t *testing.T, s *Store, ideaID string) string {
	t.Helper()
	content, err := s.Raw()
	if err != nil {
		t.Fatal(err)
	}
	current := ""
	for _, line := range strings.Split(content, "\n") {
		if isHeading(line) {
			current = line
		}
		if strings.Contains(line, "["+ideaID+"]") {
			return current
		}
	}
	t.Fatalf("idea %s not found in document", ideaID)
	return ""
}

func TestInsert_SectionRouting(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{85, "High Priority"},
		{100, "High Priority"},
		{84, "Medium Priority"},
		{60, "Medium Priority"},
		{59, "Low Priority"},
		{0, "Low Priority"},
	}

	for _, tc := range cases {
		s := newTestStore(t)
		mustInsert(t, s, Idea{ID: "idea-001", Title: "Routed", Category: "system", Score: tc.score})

		section := sectionOf(t, s, "idea-001")
		if !strings.Contains(section, tc.want) {
			t.Errorf("score %d landed in %q, want %q", tc.score, section, tc.want)
		}
	}
}

func TestInsert_CreatesDocument(t *testing.T) {
	s := newTestStore(t)
	if s.Exists() {
		t.Fatal("store should start absent")
	}

	mustInsert(t, s, Idea{ID: "idea-001", Title: "First", Category: "system"})

	if !s.Exists() {
		t.Fatal("Insert should create the document")
	}
	content, _ := s.Raw()
	for _, heading := range []string{highHeading, mediumHeading, lowHeading, archiveHeading} {
		if !strings.Contains(content, heading) {
			t.Errorf("initial document missing heading %q", heading)
		}
	}
}

func TestInsert_AfterPlaceholder(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s, Idea{ID: "idea-001", Title: "Low one", Category: "system", Score: 10})

	content, _ := s.Raw()
	lowIdx := strings.Index(content, lowHeading)
	placeholderIdx := strings.Index(content, "*No low priority ideas yet.*")
	entryIdx := strings.Index(content, "[idea-001]")

	if !(lowIdx < placeholderIdx && placeholderIdx < entryIdx) {
		t.Errorf("entry should follow the placeholder line: heading=%d placeholder=%d entry=%d",
			lowIdx, placeholderIdx, entryIdx)
	}
}

func TestInsert_MissingSectionFallsBackBeforeArchive(t *testing.T) {
	s := newTestStore(t)
	doc := `# Backlog

## Priority Queue

## Archive (Implemented)

*Nothing yet.*
`
	if err := s.write(doc); err != nil {
		t.Fatal(err)
	}

	mustInsert(t, s, Idea{ID: "idea-001", Title: "Homeless", Category: "system", Score: 90})

	content, _ := s.Raw()
	entryIdx := strings.Index(content, "[idea-001]")
	archiveIdx := strings.Index(content, "## Archive")
	if entryIdx == -1 || archiveIdx == -1 || entryIdx > archiveIdx {
		t.Errorf("entry should be inserted before the archive heading:\n%s", content)
	}

	ideas, err := s.Parse()
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas) != 1 || ideas[0].Status != StatusActive {
		t.Errorf("fallback-inserted idea should parse as active, got %+v", ideas)
	}
}

func TestInsert_NoStructureAppends(t *testing.T) {
	s := newTestStore(t)
	if err := s.write("Just some prose.\n"); err != nil {
		t.Fatal(err)
	}

	mustInsert(t, s, Idea{ID: "idea-001", Title: "Appended", Category: "system"})

	ideas, err := s.Parse()
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas) != 1 || ideas[0].Title != "Appended" {
		t.Errorf("Parse after append = %+v", ideas)
	}
}

func TestInsert_IdempotentReparse(t *testing.T) {
	s := newTestStore(t)
	mustInsert(t, s, Idea{ID: "idea-001", Title: "High", Category: "ux", Score: 90, Captured: "2026-08-01"})
	mustInsert(t, s, Idea{ID: "idea-002", Title: "Mid", Category: "tasks", Score: 70, Captured: "2026-08-02"})
	mustInsert(t, s, Idea{ID: "idea-003", Title: "Low", Category: "system", Score: 0, Captured: "2026-08-03"})

	ideas, err := s.Parse()
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas) != 3 {
		t.Fatalf("Parse returned %d ideas, want 3", len(ideas))
	}
	// Document order follows section order: high, mid, low.
	if ideas[0].ID != "idea-001" || ideas[1].ID != "idea-002" || ideas[2].ID != "idea-003" {
		t.Errorf("unexpected order: %s, %s, %s", ideas[0].ID, ideas[1].ID, ideas[2].ID)
	}
	for _, idea := range ideas {
		if idea.Status != StatusActive {
			t.Errorf("%s status = %q, want active", idea.ID, idea.Status)
		}
	}
}
