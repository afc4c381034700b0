package backlog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Store provides read/write access to the backlog document.
//
// All mutations are read-modify-write against the backing file with an
// atomic rename on save. There is no locking: callers must guarantee
// at-most-one concurrent invocation (true for a local stdio tool
// dispatcher). A concurrent deployment would need file locking or a
// single-writer actor in front of this type.
type Store struct {
	path string
}

// NewStore creates a Store for the backlog file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the backlog file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Raw returns the document text, or empty string if the file is absent.
func (s *Store) Raw() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// write persists content atomically: temp file in the same directory, then
// rename over the target. A failed call never leaves a partial document.
func (s *Store) write(content string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".backlog-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Entry grammar. The document is parsed line by line: an entry runs from its
// marker line up to (not including) the next marker, the next level-2/3
// heading, or end of document.
var (
	markerPattern = regexp.MustCompile(`^-\s*\*\*\[(idea-\d{3})\]\*\*\s*(.+)$`)
	fieldPattern  = regexp.MustCompile(`^\s*-\s*\*\*([A-Za-z][A-Za-z ]*):\*\*\s*(.*)$`)
	enrichPattern = regexp.MustCompile(`^\s*-\s*\*\*🔔 Why Now\? \(AI-enriched (\d{4}-\d{2}-\d{2})\):\*\*\s*(.*)$`)
	sourceSuffix  = regexp.MustCompile(`\s*\*\(Source:\s*(.*?)\)\*\s*$`)
	archivedTitle = regexp.MustCompile(`\s*-\s*\*Implemented:\s*(\d{4}-\d{2}-\d{2})\*\s*$`)
	scoreLeading  = regexp.MustCompile(`^(\d+)`)
)

// isHeading reports whether a line is a level-2 or level-3 heading.
func isHeading(line string) bool {
	return strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ")
}

// isArchiveHeading reports whether a line opens the archive section.
func isArchiveHeading(line string) bool {
	return strings.HasPrefix(line, "## Archive")
}

// entry is a parsed idea plus its line span in the document.
type entry struct {
	idea  Idea
	start int // marker line index
	end   int // exclusive: first line after the block
}

// parseEntries scans lines for entry markers and extracts each entry's
// metadata block.
func parseEntries(lines []string) []entry {
	var entries []entry
	inArchive := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isArchiveHeading(line) {
			inArchive = true
			continue
		}
		m := markerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		// Block runs to the next marker, heading, or EOF.
		end := i + 1
		for end < len(lines) {
			if markerPattern.MatchString(lines[end]) || isHeading(lines[end]) {
				break
			}
			end++
		}

		idea := parseEntry(m[1], m[2], lines[i+1:end])
		if inArchive {
			idea.Status = StatusImplemented
		} else {
			idea.Status = StatusActive
		}

		entries = append(entries, entry{idea: idea, start: i, end: end})
		i = end - 1
	}
	return entries
}

// parseEntry builds an Idea from a marker's id/title and its metadata lines.
func parseEntry(id, title string, block []string) Idea {
	idea := Idea{
		ID:       id,
		Category: DefaultCategory,
		Captured: time.Now().Format("2006-01-02"),
	}

	// Archive rows carry the implementation date in the title line.
	if am := archivedTitle.FindStringSubmatch(title); am != nil {
		title = strings.TrimSpace(title[:len(title)-len(am[0])])
	}
	idea.Title = strings.TrimSpace(title)

	inDescription := false
	for _, line := range block {
		if em := enrichPattern.FindStringSubmatch(line); em != nil {
			evidence := strings.TrimSpace(em[2])
			source := ""
			if sm := sourceSuffix.FindStringSubmatch(evidence); sm != nil {
				source = sm[1]
				evidence = strings.TrimSpace(evidence[:len(evidence)-len(sm[0])])
			}
			idea.Enrichments = append(idea.Enrichments, Enrichment{
				Date:     em[1],
				Evidence: evidence,
				Source:   source,
			})
			inDescription = false
			continue
		}

		if fm := fieldPattern.FindStringSubmatch(line); fm != nil {
			value := strings.TrimSpace(fm[2])
			inDescription = false
			switch fm[1] {
			case "Score":
				if sm := scoreLeading.FindStringSubmatch(value); sm != nil {
					if n, err := strconv.Atoi(sm[1]); err == nil {
						idea.Score = n
					}
				}
			case "Category":
				if value != "" {
					idea.Category = value
				}
			case "Captured":
				if value != "" {
					idea.Captured = value
				}
			case "Author":
				idea.Author = value
			case "Source":
				idea.Source = value
			case "Description":
				idea.Description = value
				inDescription = true
			}
			continue
		}

		// Continuation of a multi-line description.
		if inDescription && strings.TrimSpace(line) != "" {
			idea.Description = strings.TrimSpace(idea.Description + " " + strings.TrimSpace(line))
		}
	}

	return idea
}

// Parse extracts all ideas from the document, in document order.
// A missing file yields an empty slice, not an error.
func (s *Store) Parse() ([]Idea, error) {
	content, err := s.Raw()
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	entries := parseEntries(strings.Split(content, "\n"))
	ideas := make([]Idea, len(entries))
	for i, e := range entries {
		ideas[i] = e.idea
	}
	return ideas, nil
}

// Get returns the idea with the given id, if present.
func (s *Store) Get(id string) (Idea, bool, error) {
	ideas, err := s.Parse()
	if err != nil {
		return Idea{}, false, err
	}
	for _, idea := range ideas {
		if idea.ID == id {
			return idea, true, nil
		}
	}
	return Idea{}, false, nil
}

// NextID generates the next unused idea id by scanning all existing ids.
func (s *Store) NextID() (string, error) {
	content, err := s.Raw()
	if err != nil {
		return "", err
	}
	return nextID(content), nil
}

// findEntry locates the entry block for id in lines.
func findEntry(lines []string, id string) (entry, bool) {
	for _, e := range parseEntries(lines) {
		if e.idea.ID == id {
			return e, true
		}
	}
	return entry{}, false
}

// formatEnrichment renders one evidence annotation bullet.
func formatEnrichment(date, evidence, source string) string {
	return fmt.Sprintf("  - **🔔 Why Now? (AI-enriched %s):** %s *(Source: %s)*", date, evidence, source)
}
