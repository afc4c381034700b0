package vaultsearch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// grepSearch is the plain-text fallback: walk the vault's Markdown files
// and return those containing any significant query word. Scores decay by
// discovery order since there is no real ranking signal.
func grepSearch(vaultPath, query, glob string, limit int) []Hit {
	words := queryWords(query)
	if len(words) == 0 {
		return nil
	}
	if glob == "" {
		glob = "*.md"
	}

	var hits []Hit
	err := filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != vaultPath {
				return filepath.SkipDir
			}
			return nil
		}
		if len(hits) >= limit {
			return filepath.SkipAll
		}
		if ok, _ := filepath.Match(glob, d.Name()); !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		snippet, ok := matchSnippet(string(data), words)
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(vaultPath, path)
		if err != nil {
			rel = path
		}
		score := 1.0 - float64(len(hits))*0.08
		if score < 0.1 {
			score = 0.1
		}
		hits = append(hits, Hit{Path: rel, Score: score, Snippet: snippet, Source: "grep"})
		return nil
	})
	if err != nil {
		slog.Debug("grep fallback walk failed", "error", err)
	}
	return hits
}

// queryWords extracts lowercased words longer than two characters.
func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,:;!?()[]\"'")
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

// matchSnippet returns the first line containing a query word, trimmed for
// display, and whether the content matched at all.
func matchSnippet(content string, words []string) (string, bool) {
	lower := strings.ToLower(content)
	matched := false
	for _, w := range words {
		if strings.Contains(lower, w) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	for _, line := range strings.Split(content, "\n") {
		ll := strings.ToLower(line)
		for _, w := range words {
			if strings.Contains(ll, w) {
				s := strings.TrimSpace(line)
				if len(s) > 150 {
					s = s[:150]
				}
				return s, true
			}
		}
	}
	return "", true
}
