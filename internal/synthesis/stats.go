package synthesis

import (
	"strings"
	"time"

	"github.com/hpungsan/grist/internal/backlog"
)

// HealthStats summarizes hygiene pressure on the active backlog.
type HealthStats struct {
	ActiveCount          int    `json:"active_count"`
	TargetMax            int    `json:"target_max"`
	OverTargetBy         int    `json:"over_target_by"`
	StaleCount           int    `json:"stale_count"`
	AILowConvictionCount int    `json:"ai_low_conviction_count"`
	LastValidation       string `json:"last_validation,omitempty"`
}

// Stats is the full backlog statistics payload.
type Stats struct {
	TotalIdeas             int            `json:"total_ideas"`
	ActiveIdeas            int            `json:"active_ideas"`
	ImplementedIdeas       int            `json:"implemented_ideas"`
	ByCategory             map[string]int `json:"by_category"`
	ByPriority             map[string]int `json:"by_priority"`
	Health                 HealthStats    `json:"health"`
	LastChangelogSynthesis string         `json:"last_changelog_synthesis,omitempty"`
	LastLearningsSynthesis string         `json:"last_learnings_synthesis,omitempty"`
}

// Stats computes counts by status, category, and priority band, plus the
// same staleness signals the hygiene pass reports.
func (e *Engine) Stats() (*Stats, error) {
	ideas, err := e.store.Parse()
	if err != nil {
		return nil, err
	}

	var active, implemented []backlog.Idea
	for _, idea := range ideas {
		if idea.Status == backlog.StatusImplemented {
			implemented = append(implemented, idea)
		} else {
			active = append(active, idea)
		}
	}

	byCategory := make(map[string]int, len(backlog.Categories))
	for _, cat := range backlog.Categories {
		byCategory[cat] = 0
	}
	byPriority := map[string]int{
		"high (85+)":     0,
		"medium (60-84)": 0,
		"low (<60)":      0,
	}

	today := e.now()
	staleCount := 0
	aiLowConviction := 0

	for _, idea := range active {
		byCategory[idea.Category]++
		switch {
		case idea.Score >= backlog.HighPriorityMin:
			byPriority["high (85+)"]++
		case idea.Score >= backlog.MediumPriorityMin:
			byPriority["medium (60-84)"]++
		default:
			byPriority["low (<60)"]++
		}

		captured, err := time.Parse("2006-01-02", idea.Captured)
		if err != nil {
			continue
		}
		ageDays := int(today.Sub(captured).Hours() / 24)

		lastTouch, err := time.Parse("2006-01-02", idea.LastTouched())
		if err != nil {
			lastTouch = captured
		}
		sinceTouch := int(today.Sub(lastTouch).Hours() / 24)

		if ageDays >= e.cfg.StaleDays && sinceTouch >= e.cfg.StaleDays {
			staleCount++
		}
		if strings.Contains(idea.Author, "AI") && ageDays >= e.cfg.AIShelfLifeDays && idea.Score < e.cfg.AILowConvictionScore {
			aiLowConviction++
		}
	}

	state := LoadState(e.statePath())

	over := len(active) - e.cfg.TargetMax
	if over < 0 {
		over = 0
	}

	return &Stats{
		TotalIdeas:       len(ideas),
		ActiveIdeas:      len(active),
		ImplementedIdeas: len(implemented),
		ByCategory:       byCategory,
		ByPriority:       byPriority,
		Health: HealthStats{
			ActiveCount:          len(active),
			TargetMax:            e.cfg.TargetMax,
			OverTargetBy:         over,
			StaleCount:           staleCount,
			AILowConvictionCount: aiLowConviction,
			LastValidation:       state.LastValidation,
		},
		LastChangelogSynthesis: state.LastChangelogSynthesis,
		LastLearningsSynthesis: state.LastLearningsSynthesis,
	}, nil
}
