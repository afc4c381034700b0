package synthesis

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/config"
	"github.com/hpungsan/grist/internal/signals"
	"github.com/hpungsan/grist/internal/textsim"
	"github.com/hpungsan/grist/internal/vaultsearch"
)

// Engine runs synthesis and hygiene over one vault.
type Engine struct {
	cfg    *config.Config
	vault  string
	store  *backlog.Store
	search vaultsearch.Searcher

	now func() time.Time
}

// NewEngine builds an Engine over the given vault. searcher may be nil to
// disable the semantic dedup boost.
func NewEngine(cfg *config.Config, vault string, store *backlog.Store, searcher vaultsearch.Searcher) *Engine {
	return &Engine{cfg: cfg, vault: vault, store: store, search: searcher, now: time.Now}
}

func (e *Engine) statePath() string {
	return filepath.Join(e.vault, e.cfg.StateFile)
}

// Detail records one action a synthesis run took, for the report payload.
type Detail struct {
	Action     string  `json:"action"`
	IdeaID     string  `json:"idea_id"`
	IdeaTitle  string  `json:"idea_title,omitempty"`
	Title      string  `json:"title,omitempty"`
	Feature    string  `json:"feature,omitempty"`
	Learning   string  `json:"learning,omitempty"`
	Category   string  `json:"category,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Relevance  int     `json:"relevance,omitempty"`
}

// Report is the outcome of one synthesis run.
type Report struct {
	Scanned  int      `json:"scanned"`
	Relevant int      `json:"relevant,omitempty"`
	Created  int      `json:"ideas_created"`
	Enriched int      `json:"ideas_enriched"`
	Details  []Detail `json:"details,omitempty"`
	Message  string   `json:"message"`
}

const defaultDaysBack = 30

// effectiveSince computes the cutoff for a run: the later of the caller's
// lookback window and the persisted watermark, so content processed by a
// previous run is never reprocessed.
func (e *Engine) effectiveSince(daysBack int, watermark string) string {
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	since := e.now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	if watermark > since {
		since = watermark
	}
	return since
}

// ideaRef is the in-run candidate pool entry used for dedup matching.
// Ideas created during the run join the pool immediately so later
// candidates match against them.
type ideaRef struct {
	id, title, description string
}

func refPool(ideas []backlog.Idea) []ideaRef {
	pool := make([]ideaRef, 0, len(ideas))
	for _, idea := range ideas {
		pool = append(pool, ideaRef{id: idea.ID, title: idea.Title, description: idea.Description})
	}
	return pool
}

// bestMatch returns the pool entry most similar to text, using the plain
// text ratio against both title and description.
func bestMatch(pool []ideaRef, text string) (ideaRef, float64) {
	var best ideaRef
	bestSim := 0.0
	for _, ref := range pool {
		sim := textsim.Ratio(text, ref.title)
		if d := textsim.Ratio(text, ref.description); d > sim {
			sim = d
		}
		if sim > bestSim {
			bestSim = sim
			best = ref
		}
	}
	return best, bestSim
}

// SynthesizeChangelog scans the changelog for recent relevant features and
// turns each into an enrichment of an existing idea or a new automated idea.
func (e *Engine) SynthesizeChangelog(daysBack int) (*Report, error) {
	state := LoadState(e.statePath())
	since := e.effectiveSince(daysBack, state.LastChangelogSynthesis)

	entries := signals.ParseChangelog(filepath.Join(e.vault, e.cfg.ChangelogFile), since)

	// Nothing scanned means nothing to record; leave the watermark and
	// run history untouched so the window does not advance on a no-op.
	if len(entries) == 0 {
		report := &Report{}
		report.Message = fmt.Sprintf("No new changelog entries found since %s.", since)
		return report, nil
	}

	var relevant []signals.ChangelogEntry
	for _, entry := range entries {
		entry.Relevance = signals.ScoreRelevance(entry.Feature)
		if entry.Relevance >= e.cfg.RelevanceBar {
			relevant = append(relevant, entry)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool { return relevant[i].Relevance > relevant[j].Relevance })
	if len(relevant) > e.cfg.MaxRelevant {
		relevant = relevant[:e.cfg.MaxRelevant]
	}

	existing, err := e.store.Parse()
	if err != nil {
		return nil, err
	}
	pool := refPool(existing)

	report := &Report{Scanned: len(entries), Relevant: len(relevant)}

	for _, entry := range relevant {
		label := "Changelog"
		if entry.Version != "" {
			label = "Changelog v" + entry.Version
		}

		match, sim := bestMatch(pool, entry.Feature)
		if sim > e.cfg.ChangelogEnrichBar && match.id != "" {
			evidence := fmt.Sprintf("%s (%s): %s", label, entry.Date, entry.Feature)
			source := label
			if err := e.store.Enrich(match.id, evidence, source); err == nil {
				report.Enriched++
				report.Details = append(report.Details, Detail{
					Action:     "enriched",
					IdeaID:     match.id,
					IdeaTitle:  match.title,
					Feature:    entry.Feature,
					Similarity: math.Round(sim*100) / 100,
				})
			}
			continue
		}

		id, err := e.store.NextID()
		if err != nil {
			return nil, err
		}
		title := signals.IdeaTitle(entry.Feature)
		category := signals.InferCategory(entry.Feature)
		description := fmt.Sprintf(
			"%s (%s) shipped: %s. Evaluate how to leverage this in assistant workflows.",
			label, entry.Date, entry.Feature)

		idea := backlog.Idea{
			ID:          id,
			Title:       title,
			Description: description,
			Category:    category,
			Score:       0,
			Author:      "AI (Changelog Synthesis)",
			Source:      "Changelog Synthesis",
			Captured:    e.now().Format("2006-01-02"),
		}
		if err := e.store.Insert(idea); err != nil {
			return nil, err
		}
		report.Created++
		report.Details = append(report.Details, Detail{
			Action:    "created",
			IdeaID:    id,
			Title:     title,
			Feature:   entry.Feature,
			Category:  category,
			Relevance: entry.Relevance,
		})
		pool = append(pool, ideaRef{id: id, title: title, description: description})
	}

	state.LastChangelogSynthesis = e.now().Format("2006-01-02")
	if len(relevant) > 0 {
		state.LastChangelogVersionSeen = relevant[0].Version
	}
	state.History = append(state.History, RunSummary{
		Date:     e.now().Format(time.RFC3339),
		Type:     "changelog",
		Scanned:  len(entries),
		Relevant: len(relevant),
		Created:  report.Created,
		Enriched: report.Enriched,
	})
	if err := state.Save(e.statePath()); err != nil {
		return nil, err
	}

	if len(report.Details) > 10 {
		report.Details = report.Details[:10]
	}
	report.Message = fmt.Sprintf(
		"Scanned %d changelog entries, %d relevant. Created %d new ideas, enriched %d existing ideas.",
		report.Scanned, report.Relevant, report.Created, report.Enriched)
	return report, nil
}

// SynthesizeLearnings scans pending session learnings and turns each into
// an enrichment or, when it carries a suggested fix, a new automated idea.
func (e *Engine) SynthesizeLearnings(daysBack int) (*Report, error) {
	state := LoadState(e.statePath())
	since := e.effectiveSince(daysBack, state.LastLearningsSynthesis)

	learnings := signals.ParseLearnings(filepath.Join(e.vault, e.cfg.LearningsDir), since)

	report := &Report{Scanned: len(learnings)}
	if len(learnings) == 0 {
		report.Message = fmt.Sprintf("No pending session learnings found since %s.", since)
		return report, nil
	}

	existing, err := e.store.Parse()
	if err != nil {
		return nil, err
	}
	pool := refPool(existing)

	for _, learning := range learnings {
		searchText := learning.Title + " " + learning.SuggestedFix

		match, sim := bestMatch(pool, searchText)
		if sim > e.cfg.LearningsEnrichBar && match.id != "" {
			evidence := fmt.Sprintf("Session learning (%s): %s. %s", learning.Date, learning.Title, learning.SuggestedFix)
			source := "Session Learning " + learning.Date
			if err := e.store.Enrich(match.id, evidence, source); err == nil {
				report.Enriched++
				report.Details = append(report.Details, Detail{
					Action:     "enriched",
					IdeaID:     match.id,
					IdeaTitle:  match.title,
					Learning:   learning.Title,
					Similarity: math.Round(sim*100) / 100,
				})
			}
			continue
		}

		// Only actionable learnings become ideas.
		if learning.SuggestedFix == "" {
			continue
		}

		title := "Fix: " + learning.Title
		if len(title) > 80 {
			title = title[:77] + "..."
		}
		description := fmt.Sprintf("From session learning (%s): %s Suggested fix: %s",
			learning.Date, learning.WhatHappened, learning.SuggestedFix)

		// Final guard against near-duplicates anywhere in the backlog,
		// including ideas created earlier in this run.
		dupes := FindSimilar(e.cfg, e.search, poolIdeas(pool), title, description)
		if len(dupes) > 0 && dupes[0].Similarity > e.cfg.LearningsDuplicateBar {
			continue
		}

		id, err := e.store.NextID()
		if err != nil {
			return nil, err
		}
		idea := backlog.Idea{
			ID:          id,
			Title:       title,
			Description: description,
			Category:    backlog.DefaultCategory,
			Score:       0,
			Author:      "AI (Learnings Synthesis)",
			Source:      "Session Learning Synthesis",
			Captured:    e.now().Format("2006-01-02"),
		}
		if err := e.store.Insert(idea); err != nil {
			return nil, err
		}
		report.Created++
		report.Details = append(report.Details, Detail{
			Action:   "created",
			IdeaID:   id,
			Title:    title,
			Learning: learning.Title,
		})
		pool = append(pool, ideaRef{id: id, title: title, description: description})
	}

	state.LastLearningsSynthesis = e.now().Format("2006-01-02")
	state.History = append(state.History, RunSummary{
		Date:     e.now().Format(time.RFC3339),
		Type:     "learnings",
		Scanned:  len(learnings),
		Created:  report.Created,
		Enriched: report.Enriched,
	})
	if err := state.Save(e.statePath()); err != nil {
		return nil, err
	}

	if len(report.Details) > 10 {
		report.Details = report.Details[:10]
	}
	report.Message = fmt.Sprintf(
		"Scanned %d pending learnings. Created %d new ideas, enriched %d existing ideas.",
		report.Scanned, report.Created, report.Enriched)
	return report, nil
}

func poolIdeas(pool []ideaRef) []backlog.Idea {
	ideas := make([]backlog.Idea, 0, len(pool))
	for _, ref := range pool {
		ideas = append(ideas, backlog.Idea{ID: ref.id, Title: ref.title, Description: ref.description})
	}
	return ideas
}
