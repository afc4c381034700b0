package signals

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// LearningEntry is one pending session-learning block, keyed by the date
// its file is named after.
type LearningEntry struct {
	Date         string `json:"date"`
	Title        string `json:"title"`
	WhatHappened string `json:"what_happened"`
	WhyItMatters string `json:"why_it_matters"`
	SuggestedFix string `json:"suggested_fix"`
	File         string `json:"file"`
}

var (
	statusField   = regexp.MustCompile(`\*\*Status:\*\*\s*(\w+)`)
	learningTitle = regexp.MustCompile(`##\s*\[?\d{2}:\d{2}\]?\s*-?\s*(.+)`)
	whatField     = regexp.MustCompile(`(?s)\*\*What happened:\*\*\s*(.+?)(?:\n\*\*|\n---|\z)`)
	whyField      = regexp.MustCompile(`(?s)\*\*Why it matters:\*\*\s*(.+?)(?:\n\*\*|\n---|\z)`)
	fixField      = regexp.MustCompile(`(?s)\*\*Suggested fix:\*\*\s*(.+?)(?:\n\*\*|\n---|\z)`)
)

// ParseLearnings scans dir for per-day Markdown files (named YYYY-MM-DD.md),
// newest first, and returns the pending blocks in each. Files whose
// name-derived date is strictly before since are skipped; blocks with no
// title or a non-pending status are skipped. A missing directory yields
// no entries.
func ParseLearnings(dir, since string) []LearningEntry {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil || len(paths) == 0 {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var learnings []LearningEntry
	for _, path := range paths {
		fileDate := strings.TrimSuffix(filepath.Base(path), ".md")
		if since != "" && fileDate < since {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		for _, block := range strings.Split(string(data), "\n---\n") {
			status := statusField.FindStringSubmatch(block)
			if status == nil || status[1] != "pending" {
				continue
			}
			title := learningTitle.FindStringSubmatch(block)
			if title == nil {
				continue
			}

			learnings = append(learnings, LearningEntry{
				Date:         fileDate,
				Title:        strings.TrimSpace(title[1]),
				WhatHappened: fieldText(whatField, block),
				WhyItMatters: fieldText(whyField, block),
				SuggestedFix: fieldText(fixField, block),
				File:         path,
			})
		}
	}
	return learnings
}

func fieldText(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
