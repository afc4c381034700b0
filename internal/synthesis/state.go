// Package synthesis turns external signals (changelog features, session
// learnings) into new or enriched backlog ideas, tracks watermarks so runs
// never reprocess old signal text, and runs the backlog hygiene checks.
package synthesis

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// RunSummary is one synthesis run recorded in the state history.
type RunSummary struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Scanned  int    `json:"scanned"`
	Relevant int    `json:"relevant,omitempty"`
	Created  int    `json:"created"`
	Enriched int    `json:"enriched"`
}

// State is the persisted synthesis watermark record. It holds dates only,
// never idea content.
type State struct {
	LastChangelogSynthesis   string       `json:"last_changelog_synthesis,omitempty"`
	LastChangelogVersionSeen string       `json:"last_changelog_version_seen,omitempty"`
	LastLearningsSynthesis   string       `json:"last_learnings_synthesis,omitempty"`
	LastValidation           string       `json:"last_validation,omitempty"`
	History                  []RunSummary `json:"synthesis_history"`
}

// LoadState reads the state file at path. A missing or corrupt file yields
// a zero state rather than an error so synthesis can always proceed.
func LoadState(path string) *State {
	st := &State{}
	data, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, st); err != nil {
		return &State{}
	}
	return st
}

// Save writes the state atomically: temp file in the target directory,
// then rename.
func (st *State) Save(path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".synthstate-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
