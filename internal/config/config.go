// Package config loads Grist configuration and resolves the vault root.
//
// Configuration lives in baseDir/config.json (default ~/.grist). Every
// similarity weight and threshold used by dedup, synthesis, and validation
// is a config field: the shipped defaults are hand-tuned heuristics, not
// contracts, and users can retune them without rebuilding.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// Vault-relative locations of the documents Grist reads and writes.
	BacklogFile   string `json:"backlog_file,omitempty"`
	ChangelogFile string `json:"changelog_file,omitempty"`
	LearningsDir  string `json:"learnings_dir,omitempty"`
	SkillsDir     string `json:"skills_dir,omitempty"`
	ToolsDir      string `json:"tools_dir,omitempty"`
	WIPFile       string `json:"wip_file,omitempty"`
	ReportsDir    string `json:"reports_dir,omitempty"`
	StateFile     string `json:"state_file,omitempty"`

	// Duplicate-detection weighting for capture-time similarity checks.
	TitleWeight   float64 `json:"title_weight,omitempty"`
	DescWeight    float64 `json:"desc_weight,omitempty"`
	SemanticBoost float64 `json:"semantic_boost,omitempty"`
	SimilarBar    float64 `json:"similar_bar,omitempty"`
	DuplicateBar  float64 `json:"duplicate_bar,omitempty"`

	// Synthesis enrich-vs-create bars per signal source.
	ChangelogEnrichBar    float64 `json:"changelog_enrich_bar,omitempty"`
	LearningsEnrichBar    float64 `json:"learnings_enrich_bar,omitempty"`
	LearningsDuplicateBar float64 `json:"learnings_duplicate_bar,omitempty"`

	// Changelog relevance gate and candidate cap.
	RelevanceBar int `json:"relevance_bar,omitempty"`
	MaxRelevant  int `json:"max_relevant,omitempty"`

	// Backlog hygiene tuning.
	TargetMax            int `json:"target_max,omitempty"`
	StaleDays            int `json:"stale_days,omitempty"`
	AIShelfLifeDays      int `json:"ai_shelf_life_days,omitempty"`
	AILowConvictionScore int `json:"ai_low_conviction_score,omitempty"`

	// UpdateRepo is the GitHub owner/repo checked for new releases.
	UpdateRepo string `json:"update_repo,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BacklogFile:   filepath.Join("System", "Backlog.md"),
		ChangelogFile: filepath.Join("Resources", "changelog-log.md"),
		LearningsDir:  filepath.Join("System", "Session_Learnings"),
		SkillsDir:     filepath.Join("System", "Skills"),
		ToolsDir:      filepath.Join("System", "Tools"),
		WIPFile:       filepath.Join("System", "Work_In_Progress.md"),
		ReportsDir:    filepath.Join("Resources", "Intel", "reports"),
		StateFile:     filepath.Join("System", ".synthesis-state.json"),

		TitleWeight:   0.6,
		DescWeight:    0.25,
		SemanticBoost: 0.15,
		SimilarBar:    0.5,
		DuplicateBar:  0.75,

		ChangelogEnrichBar:    0.4,
		LearningsEnrichBar:    0.5,
		LearningsDuplicateBar: 0.7,

		RelevanceBar: 20,
		MaxRelevant:  15,

		TargetMax:            20,
		StaleDays:            90,
		AIShelfLifeDays:      30,
		AILowConvictionScore: 55,

		UpdateRepo: "hpungsan/grist",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.grist.
func Load(baseDir string) (*Config, error) {
	overlay, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), overlay), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values win if non-zero.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	mergeString(&result.BacklogFile, base.BacklogFile)
	mergeString(&result.ChangelogFile, base.ChangelogFile)
	mergeString(&result.LearningsDir, base.LearningsDir)
	mergeString(&result.SkillsDir, base.SkillsDir)
	mergeString(&result.ToolsDir, base.ToolsDir)
	mergeString(&result.WIPFile, base.WIPFile)
	mergeString(&result.ReportsDir, base.ReportsDir)
	mergeString(&result.StateFile, base.StateFile)
	mergeString(&result.UpdateRepo, base.UpdateRepo)

	mergeFloat(&result.TitleWeight, base.TitleWeight)
	mergeFloat(&result.DescWeight, base.DescWeight)
	mergeFloat(&result.SemanticBoost, base.SemanticBoost)
	mergeFloat(&result.SimilarBar, base.SimilarBar)
	mergeFloat(&result.DuplicateBar, base.DuplicateBar)
	mergeFloat(&result.ChangelogEnrichBar, base.ChangelogEnrichBar)
	mergeFloat(&result.LearningsEnrichBar, base.LearningsEnrichBar)
	mergeFloat(&result.LearningsDuplicateBar, base.LearningsDuplicateBar)

	mergeInt(&result.RelevanceBar, base.RelevanceBar)
	mergeInt(&result.MaxRelevant, base.MaxRelevant)
	mergeInt(&result.TargetMax, base.TargetMax)
	mergeInt(&result.StaleDays, base.StaleDays)
	mergeInt(&result.AIShelfLifeDays, base.AIShelfLifeDays)
	mergeInt(&result.AILowConvictionScore, base.AILowConvictionScore)

	return &result
}

func mergeString(dst *string, base string) {
	if *dst == "" {
		*dst = base
	}
}

func mergeFloat(dst *float64, base float64) {
	if *dst == 0 {
		*dst = base
	}
}

func mergeInt(dst *int, base int) {
	if *dst == 0 {
		*dst = base
	}
}

// ResolveVault resolves the vault root directory.
// Precedence: explicit value, GRIST_VAULT, VAULT_PATH, then an upward walk
// from the working directory looking for a System/ marker, then cwd itself.
func ResolveVault(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, env := range []string{"GRIST_VAULT", "VAULT_PATH"} {
		if v := os.Getenv(env); v != "" {
			if info, err := os.Stat(v); err == nil && info.IsDir() {
				return v
			}
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	dir := cwd
	for {
		if info, err := os.Stat(filepath.Join(dir, "System")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}
