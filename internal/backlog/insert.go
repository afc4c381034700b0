package backlog

import (
	"fmt"
	"strings"
	"time"
)

// Priority section score thresholds.
const (
	HighPriorityMin   = 85
	MediumPriorityMin = 60
)

// Section headings. Insert matches on the stable text, not the emoji, so
// hand-edited vaults with variant decorations still parse.
const (
	highHeading    = "### 🔥 High Priority (Score: 85+)"
	mediumHeading  = "### ⚡ Medium Priority (Score: 60-84)"
	lowHeading     = "### 💡 Low Priority (Score: <60)"
	archiveHeading = "## Archive (Implemented)"
)

// sectionFor returns the marker text identifying the target priority
// section for a score.
func sectionFor(score int) string {
	switch {
	case score >= HighPriorityMin:
		return "High Priority"
	case score >= MediumPriorityMin:
		return "Medium Priority"
	default:
		return "Priority" // matches both "Low Priority" and "Lower Priority"
	}
}

// matchesSection reports whether a line is the level-3 heading of the
// wanted priority section.
func matchesSection(line, wanted string) bool {
	if !strings.HasPrefix(line, "### ") {
		return false
	}
	if wanted == "Priority" {
		return strings.Contains(line, "Low Priority") || strings.Contains(line, "Lower Priority")
	}
	return strings.Contains(line, wanted)
}

// isPlaceholderLine reports whether a line is an italic placeholder such as
// "*No high priority ideas yet.*".
func isPlaceholderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) > 2 && strings.HasPrefix(trimmed, "*") && strings.HasSuffix(trimmed, "*") &&
		!strings.HasPrefix(trimmed, "**")
}

// formatEntry renders an idea as a full entry block (without trailing blank).
func formatEntry(idea Idea) []string {
	lines := []string{fmt.Sprintf("- **[%s]** %s", idea.ID, idea.Title)}
	if idea.Author != "" {
		lines = append(lines, fmt.Sprintf("  - **Author:** %s", idea.Author))
	}
	scoreNote := ""
	if idea.Score == 0 {
		scoreNote = " (not yet ranked)"
	}
	lines = append(lines,
		fmt.Sprintf("  - **Score:** %d%s", idea.Score, scoreNote),
		fmt.Sprintf("  - **Category:** %s", idea.Category),
		fmt.Sprintf("  - **Captured:** %s", idea.Captured),
	)
	if idea.Source != "" {
		lines = append(lines, fmt.Sprintf("  - **Source:** %s", idea.Source))
	}
	lines = append(lines, fmt.Sprintf("  - **Description:** %s", idea.Description))
	return lines
}

// Insert adds a new idea to the priority section matching its score.
// If the section heading is missing it falls back to inserting before an
// Archive/Summary heading or trailing separator, and finally appends to the
// end of the document. Creates the initial document when absent.
// The idea's Captured date is stamped with today when empty.
func (s *Store) Insert(idea Idea) error {
	if !s.Exists() {
		if err := s.write(initialDocument()); err != nil {
			return err
		}
	}

	content, err := s.Raw()
	if err != nil {
		return err
	}
	if idea.Captured == "" {
		idea.Captured = time.Now().Format("2006-01-02")
	}

	lines := strings.Split(content, "\n")
	block := formatEntry(idea)
	wanted := sectionFor(idea.Score)

	// Primary: directly after the section heading and any placeholder line.
	for i, line := range lines {
		if !matchesSection(line, wanted) {
			continue
		}
		at := i + 1
		for at < len(lines) && strings.TrimSpace(lines[at]) == "" {
			at++
		}
		if at < len(lines) && isPlaceholderLine(lines[at]) {
			at++
		}
		return s.write(spliceLines(lines, at, append([]string{""}, block...)))
	}

	// Fallback: before Archive/Summary heading or a trailing separator.
	for i, line := range lines {
		if strings.HasPrefix(line, "## Archive") || strings.HasPrefix(line, "## Summary") {
			return s.write(spliceLines(lines, i, append(block, "")))
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "---" {
			return s.write(spliceLines(lines, i, append(block, "")))
		}
		if strings.TrimSpace(lines[i]) != "" {
			break
		}
	}

	// Last resort: append.
	out := strings.TrimRight(content, "\n") + "\n\n" + strings.Join(block, "\n") + "\n"
	return s.write(out)
}

// spliceLines inserts insertion at index at and rejoins the document.
func spliceLines(lines []string, at int, insertion []string) string {
	out := make([]string, 0, len(lines)+len(insertion))
	out = append(out, lines[:at]...)
	out = append(out, insertion...)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n")
}

// initialDocument returns the starting backlog structure.
func initialDocument() string {
	timestamp := time.Now().Format("2006-01-02 15:04")
	return fmt.Sprintf(`# System Improvement Backlog

*Created: %s*

Ideas for improving the system. Capture anytime with the capture_idea tool;
run validation and synthesis regularly to keep the queue honest.

---

## Priority Queue

%s

*No high priority ideas yet. Capture your first idea to get started!*

%s

*No medium priority ideas yet.*

%s

*No low priority ideas yet.*

---

%s

*Implemented ideas will appear here with completion dates.*
`, timestamp, highHeading, mediumHeading, lowHeading, archiveHeading)
}
