// Package vaultsearch provides best-effort vault-wide search for the
// similarity engine: a semantic backend shelling out to an external qmd
// binary, with a plain-text grep fallback over the vault's Markdown files.
//
// Search never fails: backend errors degrade to the fallback and then to
// empty results. This is an enrichment signal, not a hard dependency.
package vaultsearch

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"
)

// Hit is one search result.
type Hit struct {
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
	Source  string  `json:"source"` // "semantic" or "grep"
}

// Searcher is the capability consumed by the similarity engine.
type Searcher interface {
	// Search returns ranked hits for query, best-effort. minScore is only
	// applied to semantic results; fallbackGlob restricts the grep fallback
	// to matching file names.
	Search(query string, limit int, minScore float64, fallbackGlob string) []Hit
}

// Probe and query timeouts. The availability probe spawns a subprocess, so
// its result is cached for the process lifetime.
const (
	probeTimeout = 5 * time.Second
	queryTimeout = 30 * time.Second
)

// Adapter is the default Searcher: semantic when the qmd binary is
// installed and healthy, grep otherwise.
type Adapter struct {
	vaultPath string

	mu        sync.Mutex
	probed    bool
	available bool

	// Test seams.
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates an Adapter rooted at vaultPath. Availability is probed
// lazily on first use.
func New(vaultPath string) *Adapter {
	return &Adapter{
		vaultPath: vaultPath,
		lookPath:  exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Available reports whether the semantic backend is usable. The first call
// probes the binary (`qmd status`) with a short timeout; the result is
// cached until Reset.
func (a *Adapter) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.probed {
		return a.available
	}
	a.probed = true
	a.available = a.probe()
	return a.available
}

// Reset clears the cached availability so the next call re-probes.
// Intended for tests and post-install refresh.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probed = false
	a.available = false
}

func (a *Adapter) probe() bool {
	bin, err := a.lookPath("qmd")
	if err != nil {
		slog.Debug("semantic search unavailable: qmd not on PATH")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if _, err := a.run(ctx, bin, "status"); err != nil {
		slog.Debug("semantic search unavailable: status probe failed", "error", err)
		return false
	}
	return true
}

// Search implements Searcher. Semantic results are filtered by minScore and
// sorted by score descending; when the backend is unavailable or returns
// nothing, the grep fallback runs instead.
func (a *Adapter) Search(query string, limit int, minScore float64, fallbackGlob string) []Hit {
	if limit <= 0 {
		limit = 10
	}

	if a.Available() {
		hits := a.semanticSearch(query, limit)
		if len(hits) > 0 {
			filtered := hits[:0]
			for _, h := range hits {
				if h.Score >= minScore {
					filtered = append(filtered, h)
				}
			}
			sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
			if len(filtered) > limit {
				filtered = filtered[:limit]
			}
			if len(filtered) > 0 {
				return filtered
			}
		}
		slog.Debug("semantic search returned nothing, falling back to grep", "query", truncate(query, 50))
	}

	return grepSearch(a.vaultPath, query, fallbackGlob, limit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
