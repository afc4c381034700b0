// Package signals extracts candidate improvement records from external
// text corpora: a dated changelog document and per-day session learning
// notes. Extraction is best-effort; missing files mean no candidates.
package signals

import (
	"os"
	"regexp"
	"strings"
)

// ChangelogEntry is one feature bullet attributed to its governing date
// heading and optional version heading.
type ChangelogEntry struct {
	Date      string `json:"date"`
	Version   string `json:"version"`
	Feature   string `json:"feature"`
	Relevance int    `json:"relevance,omitempty"`
}

var (
	dateHeading    = regexp.MustCompile(`^##\s+(\d{4}-\d{2}-\d{2})\s*$`)
	versionHeading = regexp.MustCompile(`^#{2,3}\s+v(\S+)(?:\s*[-–—]\s*(\d{4}-\d{2}-\d{2}))?`)
)

// Feature bullets shorter than this are noise (e.g. "- Misc fixes").
const minFeatureLen = 10

// ParseChangelog reads path and returns feature entries. Entries dated
// strictly before since (YYYY-MM-DD, empty to disable) are excluded.
// A missing or unreadable file yields no entries.
func ParseChangelog(path, since string) []ChangelogEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entries []ChangelogEntry
	var curDate, curVersion string

	for _, line := range strings.Split(string(data), "\n") {
		if m := dateHeading.FindStringSubmatch(line); m != nil {
			curDate = m[1]
			continue
		}
		if m := versionHeading.FindStringSubmatch(line); m != nil {
			curVersion = m[1]
			if m[2] != "" {
				curDate = m[2]
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") || curDate == "" {
			continue
		}
		feature := strings.TrimSpace(trimmed[2:])
		if len(feature) < minFeatureLen {
			continue
		}
		if since != "" && curDate < since {
			continue
		}
		entries = append(entries, ChangelogEntry{Date: curDate, Version: curVersion, Feature: feature})
	}
	return entries
}

// relevanceKeywords is the domain-relevance vocabulary. Every matching
// keyword counts, including overlapping ones.
var relevanceKeywords = []string{
	"memory", "memories", "recall", "remember",
	"hook", "hooks", "session",
	"agent", "agents", "sub-agent", "teammate", "multi-agent",
	"mcp", "tool", "tools", "server",
	"task", "tasks", "todo",
	"skill", "skills", "command", "commands", "slash",
	"context", "compact", "summariz",
	"calendar", "reminder",
	"keybind", "keyboard", "shortcut",
	"oauth", "credential", "authentication",
	"pdf", "document",
	"webhook", "notification",
}

var offDomainKeywords = []string{
	"vscode", "ide", "windows", "thai", "lao", "japanese ime", "zenkaku",
}

// ScoreRelevance rates a feature description 0-100 for how likely it is
// to be worth a backlog idea: +15 per keyword hit, +10 for new-feature
// phrasing, +5 for fix/improve phrasing, -20 for off-domain terms.
func ScoreRelevance(feature string) int {
	lower := strings.ToLower(feature)
	score := 0

	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			score += 15
		}
	}

	if containsAny(lower, "added", "new", "support for") {
		score += 10
	}
	if containsAny(lower, "fixed", "improved") {
		score += 5
	}
	if containsAny(lower, offDomainKeywords...) {
		score -= 20
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// categoryRules maps keyword groups to backlog categories, checked in
// order; the first group with a hit wins.
var categoryRules = []struct {
	keywords []string
	category string
}{
	{[]string{"memory", "memories", "recall", "remember", "context", "compact", "summariz"}, "knowledge"},
	{[]string{"agent", "sub-agent", "teammate", "multi-agent", "task"}, "performance"},
	{[]string{"mcp", "oauth", "credential", "slack", "integration"}, "integration"},
	{[]string{"hook", "automat", "cron", "background"}, "automation"},
	{[]string{"keybind", "keyboard", "shortcut", "ui", "ux"}, "ux"},
	{[]string{"skill", "command", "slash"}, "workflows"},
}

// InferCategory picks a backlog category for a feature description.
func InferCategory(feature string) string {
	lower := strings.ToLower(feature)
	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords...) {
			return rule.category
		}
	}
	return "system"
}

// IdeaTitle derives a concise backlog title from a feature description.
func IdeaTitle(feature string) string {
	text := strings.TrimSpace(feature)
	if strings.HasPrefix(text, "Added ") {
		text = text[len("Added "):]
	} else if strings.HasPrefix(text, "New ") {
		text = text[len("New "):]
	}
	if len(text) > 80 {
		text = text[:77] + "..."
	}
	return "Leverage: " + text
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
