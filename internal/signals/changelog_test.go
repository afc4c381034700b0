package signals

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const sampleChangelog = `# Changelog

## 2026-08-20
### v2.1.0
- Added support for memory hooks in sessions
- Fix typo

## 2026-08-01
- Improved keyboard shortcut handling for the task list

## 2026-07-01
### v2.0.0 - 2026-07-02
- New webhook notification channel for reminders
`

func TestParseChangelog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "changelog.md", sampleChangelog)

	entries := ParseChangelog(path, "")
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}

	first := entries[0]
	if first.Date != "2026-08-20" || first.Version != "2.1.0" {
		t.Errorf("first entry date/version = %q/%q", first.Date, first.Version)
	}
	if first.Feature != "Added support for memory hooks in sessions" {
		t.Errorf("first feature = %q", first.Feature)
	}

	// "Fix typo" is under 10 characters and must be dropped.
	for _, e := range entries {
		if e.Feature == "Fix typo" {
			t.Error("short bullet was not filtered")
		}
	}

	// Version heading with its own date overrides the tracking date.
	last := entries[2]
	if last.Date != "2026-07-02" || last.Version != "2.0.0" {
		t.Errorf("last entry date/version = %q/%q", last.Date, last.Version)
	}
}

func TestParseChangelogSinceCutoff(t *testing.T) {
	path := writeFile(t, t.TempDir(), "changelog.md", sampleChangelog)

	entries := ParseChangelog(path, "2026-08-01")
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	for _, e := range entries {
		if e.Date < "2026-08-01" {
			t.Errorf("entry dated %s leaked past cutoff", e.Date)
		}
	}
}

func TestParseChangelogMissingFile(t *testing.T) {
	if entries := ParseChangelog(filepath.Join(t.TempDir(), "absent.md"), ""); entries != nil {
		t.Errorf("missing file should yield nil, got %+v", entries)
	}
}

func TestScoreRelevance(t *testing.T) {
	// Multiple keyword hits plus the new-feature bonus.
	score := ScoreRelevance("Added support for memory and multi-agent teammate hooks")
	if score < 45 {
		t.Errorf("score = %d, want >= 45", score)
	}

	// Off-domain penalty pushes this below zero; clamp at zero.
	if got := ScoreRelevance("Improved Windows IME rendering"); got != 0 {
		t.Errorf("off-domain score = %d, want 0", got)
	}

	if got := ScoreRelevance("Rewrote the build pipeline"); got != 0 {
		t.Errorf("neutral score = %d, want 0", got)
	}

	// Scores never exceed 100.
	heavy := "memory memories recall remember hook hooks session agent agents teammate task tasks tool tools added"
	if got := ScoreRelevance(heavy); got != 100 {
		t.Errorf("clamped score = %d, want 100", got)
	}
}

func TestInferCategory(t *testing.T) {
	cases := []struct {
		feature string
		want    string
	}{
		{"Added memory recall for long sessions", "knowledge"},
		{"Multi-agent task delegation", "performance"},
		{"OAuth credential refresh for MCP servers", "integration"},
		{"Background cron hooks", "automation"},
		{"New keyboard shortcut palette", "ux"},
		{"Slash command arguments", "workflows"},
		{"Faster startup", "system"},
	}
	for _, tc := range cases {
		if got := InferCategory(tc.feature); got != tc.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tc.feature, got, tc.want)
		}
	}
}

func TestIdeaTitle(t *testing.T) {
	if got := IdeaTitle("Added webhook notifications"); got != "Leverage: webhook notifications" {
		t.Errorf("got %q", got)
	}
	if got := IdeaTitle("New session recap view"); got != "Leverage: session recap view" {
		t.Errorf("got %q", got)
	}

	long := IdeaTitle("Added " + string(make([]byte, 0)) + "a feature with an extremely long description that goes on and on and on well past the eighty character limit for titles")
	if len(long) > len("Leverage: ")+80 {
		t.Errorf("long title not truncated: %d chars", len(long))
	}
}
