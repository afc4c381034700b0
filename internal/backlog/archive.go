package backlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/grist/internal/errors"
)

// ArchiveResult reports the outcome of MarkImplemented.
type ArchiveResult struct {
	IdeaID          string `json:"idea_id"`
	Title           string `json:"title"`
	ImplementedDate string `json:"implemented_date"`
}

// MarkImplemented moves an idea out of its priority section and appends a
// compact one-line record to the Archive section, creating that section if
// absent. Calling it twice on the same id fails with ALREADY_IMPLEMENTED.
func (s *Store) MarkImplemented(ideaID, implementedDate string) (*ArchiveResult, error) {
	content, err := s.Raw()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if content == "" {
		return nil, errors.NewNotFound(ideaID)
	}

	lines := strings.Split(content, "\n")
	e, ok := findEntry(lines, ideaID)
	if !ok {
		return nil, errors.NewNotFound(ideaID)
	}
	if e.idea.Status == StatusImplemented {
		return nil, errors.NewAlreadyImplemented(ideaID)
	}

	if implementedDate == "" {
		implementedDate = time.Now().Format("2006-01-02")
	}

	// Remove the entry block. If both a blank line preceded the block and
	// one trailed it, drop one of them so the section keeps single spacing.
	removed := make([]string, 0, len(lines)-(e.end-e.start))
	removed = append(removed, lines[:e.start]...)
	rest := lines[e.end:]
	// Drop one leading blank left behind by the removed block.
	if e.start > 0 && strings.TrimSpace(lines[e.start-1]) == "" && len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
		rest = rest[1:]
	}
	removed = append(removed, rest...)
	lines = removed

	record := fmt.Sprintf("- **[%s]** %s - *Implemented: %s*", ideaID, e.idea.Title, implementedDate)

	// Insert under the Archive heading, past any placeholder line.
	for i, line := range lines {
		if !isArchiveHeading(line) {
			continue
		}
		at := i + 1
		for at < len(lines) && strings.TrimSpace(lines[at]) == "" {
			at++
		}
		if at < len(lines) && isPlaceholderLine(lines[at]) {
			at++
		}
		if err := s.write(spliceLines(lines, at, []string{"", record})); err != nil {
			return nil, errors.NewInternal(err)
		}
		return &ArchiveResult{IdeaID: ideaID, Title: e.idea.Title, ImplementedDate: implementedDate}, nil
	}

	// No archive section: create one at the end.
	out := strings.TrimRight(strings.Join(lines, "\n"), "\n") +
		"\n\n" + archiveHeading + "\n\n" + record + "\n"
	if err := s.write(out); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ArchiveResult{IdeaID: ideaID, Title: e.idea.Title, ImplementedDate: implementedDate}, nil
}
