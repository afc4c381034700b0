package backlog

import (
	"strings"
	"time"

	"github.com/hpungsan/grist/internal/errors"
)

// Enrich appends an evidence annotation to an existing idea's entry.
// Annotations are strictly append-only: prior evidence lines are never
// rewritten, so the full enrichment history survives in the document.
func (s *Store) Enrich(ideaID, evidence, source string) error {
	content, err := s.Raw()
	if err != nil {
		return errors.NewInternal(err)
	}
	if content == "" {
		return errors.NewNotFound(ideaID)
	}

	lines := strings.Split(content, "\n")
	e, ok := findEntry(lines, ideaID)
	if !ok {
		return errors.NewNotFound(ideaID)
	}

	annotation := formatEnrichment(time.Now().Format("2006-01-02"), evidence, source)

	// Append after the last non-blank line of the block. When prior
	// enrichment annotations exist this lands directly below them,
	// preserving chronological order.
	at := e.end
	for at > e.start+1 && strings.TrimSpace(lines[at-1]) == "" {
		at--
	}

	return s.write(spliceLines(lines, at, []string{annotation}))
}
