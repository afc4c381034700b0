package vaultsearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeVaultFile(t *testing.T, vault, rel, content string) {
	t.Helper()
	path := filepath.Join(vault, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestProbeCachedUntilReset(t *testing.T) {
	a := New(t.TempDir())
	calls := 0
	a.lookPath = func(string) (string, error) { return "/usr/bin/qmd", nil }
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls++
		return []byte("ok"), nil
	}

	if !a.Available() {
		t.Fatal("expected available")
	}
	a.Available()
	a.Available()
	if calls != 1 {
		t.Errorf("probe ran %d times, want 1", calls)
	}

	a.Reset()
	a.Available()
	if calls != 2 {
		t.Errorf("probe after Reset ran %d times total, want 2", calls)
	}
}

func TestProbeMissingBinary(t *testing.T) {
	a := New(t.TempDir())
	a.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if a.Available() {
		t.Error("expected unavailable when qmd is not on PATH")
	}
}

func TestSemanticSearchFiltersAndSorts(t *testing.T) {
	a := New(t.TempDir())
	a.lookPath = func(string) (string, error) { return "/usr/bin/qmd", nil }
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[0] == "status" {
			return []byte("ok"), nil
		}
		return []byte(`[
			{"path":"a.md","score":0.4,"snippet":"low"},
			{"path":"b.md","score":0.9,"snippet":"high"},
			{"path":"c.md","score":0.7,"snippet":"mid"}
		]`), nil
	}

	hits := a.Search("calendar sync", 10, 0.5, "")
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %+v", len(hits), hits)
	}
	if hits[0].Path != "b.md" || hits[1].Path != "c.md" {
		t.Errorf("wrong order: %+v", hits)
	}
	for _, h := range hits {
		if h.Source != "semantic" {
			t.Errorf("hit %s source = %q, want semantic", h.Path, h.Source)
		}
	}
}

func TestSemanticFailureFallsBackToGrep(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "notes/calendar.md", "# Notes\nsync the calendar with reminders\n")

	a := New(vault)
	a.lookPath = func(string) (string, error) { return "/usr/bin/qmd", nil }
	a.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if len(args) > 0 && args[0] == "status" {
			return []byte("ok"), nil
		}
		return nil, errors.New("boom")
	}

	hits := a.Search("calendar sync", 5, 0.5, "*.md")
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Source != "grep" {
		t.Errorf("source = %q, want grep", hits[0].Source)
	}
}

func TestParseQmdTextOutput(t *testing.T) {
	out := []byte("System/Backlog.md (score: 0.82)\nResources/notes.md (score: 0.61)\n")
	hits := parseQmdOutput(out)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Path != "System/Backlog.md" || hits[0].Score != 0.82 {
		t.Errorf("wrong first hit: %+v", hits[0])
	}
}

func TestGrepSearch(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "one.md", "nothing relevant here\n")
	writeVaultFile(t, vault, "two.md", "automated calendar sync idea\n")
	writeVaultFile(t, vault, "sub/three.md", "more calendar thoughts\n")
	writeVaultFile(t, vault, ".hidden/skip.md", "calendar inside hidden dir\n")
	writeVaultFile(t, vault, "four.txt", "calendar but wrong extension\n")

	hits := grepSearch(vault, "calendar sync", "*.md", 10)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %+v", len(hits), hits)
	}
	for i, h := range hits {
		want := 1.0 - float64(i)*0.08
		if h.Score != want {
			t.Errorf("hit %d score = %v, want %v", i, h.Score, want)
		}
		if h.Snippet == "" {
			t.Errorf("hit %d has empty snippet", i)
		}
	}
}

func TestGrepSearchIgnoresShortWords(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "a.md", "an ox is in it\n")

	if hits := grepSearch(vault, "an ox is it", "*.md", 10); len(hits) != 0 {
		t.Errorf("short query words should not match, got %+v", hits)
	}
}

func TestGrepSearchLimit(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "a.md", "calendar a\n")
	writeVaultFile(t, vault, "b.md", "calendar b\n")
	writeVaultFile(t, vault, "c.md", "calendar c\n")

	if hits := grepSearch(vault, "calendar", "*.md", 2); len(hits) != 2 {
		t.Errorf("got %d hits, want 2", len(hits))
	}
}
