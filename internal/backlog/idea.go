// Package backlog owns the idea backlog Markdown document: parsing entries
// into structured records and rewriting the document in place (insert,
// enrich, archive) while preserving its section structure.
//
// The document is the single source of truth. No other package writes to it.
package backlog

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// Idea statuses. Status is derived from section membership, never stored:
// an entry after the Archive heading is implemented, everything else active.
const (
	StatusActive      = "active"
	StatusImplemented = "implemented"
)

// Categories is the closed enumeration of idea categories.
var Categories = []string{
	"workflows",     // daily/weekly/quarterly routines
	"automation",    // scripts, hooks, background jobs
	"relationships", // people, companies, meetings
	"tasks",         // capture, management, prioritization
	"projects",      // tracking, health, planning
	"knowledge",     // capture, synthesis, retrieval
	"system",        // configuration, structure, tooling
	"ux",            // user experience improvements
	"integration",   // external service integrations
	"performance",   // speed and efficiency
	"intelligence",  // proactive insights and discovery
}

// DefaultCategory is used when no category is given or inferred.
const DefaultCategory = "system"

// ValidCategory reports whether c is in the category enumeration.
func ValidCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// Enrichment is one appended evidence annotation on an idea.
type Enrichment struct {
	Date     string `json:"date"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"`
}

// Idea is a single backlog entry.
type Idea struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Score       int          `json:"score"`
	Author      string       `json:"author,omitempty"`
	Source      string       `json:"source,omitempty"`
	Captured    string       `json:"captured"`
	Status      string       `json:"status"`
	Enrichments []Enrichment `json:"enrichments,omitempty"`
}

// LastTouched returns the most recent enrichment date, or the captured date
// when the idea has never been enriched. Dates compare lexically (ISO form).
func (i Idea) LastTouched() string {
	last := i.Captured
	for _, e := range i.Enrichments {
		if e.Date > last {
			last = e.Date
		}
	}
	return last
}

// idPattern matches idea ids anywhere in the document, including archive rows.
var idPattern = regexp.MustCompile(`\[idea-(\d{3})\]`)

// nextID computes the next idea id from existing document content:
// max seen + 1, zero-padded to 3 digits. Ids are never reused.
func nextID(content string) string {
	maxNum := 0
	for _, m := range idPattern.FindAllStringSubmatch(content, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return fmt.Sprintf("idea-%03d", maxNum+1)
}
