package synthesis

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/config"
	"github.com/hpungsan/grist/internal/textsim"
	"github.com/hpungsan/grist/internal/vaultsearch"
)

// SimilarIdea is one dedup match against the existing backlog.
type SimilarIdea struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Similarity    float64 `json:"similarity"`
	SemanticMatch bool    `json:"semantic_match"`
}

// semanticHitBar is the snippet score above which a vault-search hit
// counts as evidence of semantic overlap.
const semanticHitBar = 0.35

// FindSimilar ranks ideas by similarity to title/description: a weighted
// sum of title and description text similarity, plus a fixed boost when
// vault search surfaces the idea as a semantic neighbor. Returns at most
// three matches at or above the configured bar, strongest first.
func FindSimilar(cfg *config.Config, searcher vaultsearch.Searcher, ideas []backlog.Idea, title, description string) []SimilarIdea {
	if len(ideas) == 0 {
		return nil
	}

	snippets := semanticSnippets(cfg, searcher, title, description)

	var similar []SimilarIdea
	for _, idea := range ideas {
		titleSim := textsim.Ratio(title, idea.Title)
		descSim := textsim.Ratio(description, idea.Description)

		boost := 0.0
		if len(snippets) > 0 && snippetsMention(snippets, idea.Title) {
			boost = cfg.SemanticBoost
		}

		score := titleSim*cfg.TitleWeight + descSim*cfg.DescWeight + boost
		if score >= cfg.SimilarBar {
			similar = append(similar, SimilarIdea{
				ID:            idea.ID,
				Title:         idea.Title,
				Similarity:    math.Round(score*100) / 100,
				SemanticMatch: boost > 0,
			})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool { return similar[i].Similarity > similar[j].Similarity })
	if len(similar) > 3 {
		similar = similar[:3]
	}
	return similar
}

// semanticSnippets queries vault search for neighbors of the candidate
// text and returns lowered snippet prefixes worth matching against.
func semanticSnippets(cfg *config.Config, searcher vaultsearch.Searcher, title, description string) []string {
	if searcher == nil {
		return nil
	}

	query := title
	if description != "" {
		desc := description
		if len(desc) > 100 {
			desc = desc[:100]
		}
		query += " " + desc
	}

	var snippets []string
	for _, hit := range searcher.Search(query, 5, 0.3, filepath.Base(cfg.BacklogFile)) {
		if hit.Score < semanticHitBar || hit.Snippet == "" {
			continue
		}
		s := strings.ToLower(hit.Snippet)
		if len(s) > 100 {
			s = s[:100]
		}
		snippets = append(snippets, s)
	}
	return snippets
}

// snippetsMention reports whether any snippet contains the idea title, or
// shares a word longer than four characters with it.
func snippetsMention(snippets []string, ideaTitle string) bool {
	lower := strings.ToLower(ideaTitle)
	for _, snippet := range snippets {
		if strings.Contains(snippet, lower) {
			return true
		}
		for _, word := range strings.Fields(lower) {
			if len(word) > 4 && strings.Contains(snippet, word) {
				return true
			}
		}
	}
	return false
}
