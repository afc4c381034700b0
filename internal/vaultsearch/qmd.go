package vaultsearch

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// qmdHit mirrors the JSON object the qmd binary emits per result. Only the
// fields we consume are listed; unknown fields are ignored.
type qmdHit struct {
	Path    string  `json:"path"`
	File    string  `json:"file"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
	Text    string  `json:"text"`
}

// Text output lines look like "System/Backlog.md (score: 0.82)".
var qmdTextLine = regexp.MustCompile(`^(.+?)\s+\(score:\s*([0-9.]+)\)\s*$`)

func (a *Adapter) semanticSearch(query string, limit int) []Hit {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	out, err := a.run(ctx, "qmd", "query", query, "--limit", strconv.Itoa(limit), "--json")
	if err != nil {
		slog.Debug("qmd query failed", "error", err)
		return nil
	}
	return parseQmdOutput(out)
}

// parseQmdOutput accepts either a JSON array of hits or the plain text
// listing older qmd versions print despite --json.
func parseQmdOutput(out []byte) []Hit {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var raw []qmdHit
		if err := json.Unmarshal([]byte(trimmed), &raw); err == nil {
			hits := make([]Hit, 0, len(raw))
			for _, r := range raw {
				path := r.Path
				if path == "" {
					path = r.File
				}
				if path == "" {
					continue
				}
				snippet := r.Snippet
				if snippet == "" {
					snippet = r.Text
				}
				hits = append(hits, Hit{Path: path, Score: r.Score, Snippet: snippet, Source: "semantic"})
			}
			return hits
		}
	}

	var hits []Hit
	for _, line := range strings.Split(trimmed, "\n") {
		m := qmdTextLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Path: m[1], Score: score, Source: "semantic"})
	}
	return hits
}
