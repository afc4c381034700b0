package synthesis

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/textsim"
)

// Redundancy thresholds per source. A match above the kill bar recommends
// removing the idea; the capabilities report has a secondary downrank band.
const (
	skillKillBar    = 0.6
	toolKillBar     = 0.6
	wipKillBar      = 0.55
	capKillBar      = 0.5
	capDownrankBar  = 0.35
	maxConfidence   = 0.99
	staleConfCap    = 0.9
	staleConfBase   = 0.5
	aiShelfConfBase = 0.6
)

// Action is one recommended hygiene action for a backlog idea.
type Action struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	Action     string  `json:"action"` // "kill", "downrank", or "archive_stale"
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// ValidationReport is the outcome of a hygiene pass over the active backlog.
type ValidationReport struct {
	Validated      int      `json:"validated"`
	Actions        []Action `json:"actions"`
	Healthy        int      `json:"healthy"`
	Target         int      `json:"target"`
	OverTargetBy   int      `json:"over_target_by"`
	LastValidation string   `json:"last_validation"`
}

// Validate runs redundancy checks (skills, tools, shipped work, capability
// reports) and staleness checks over every active idea. Each idea gets at
// most one recommended action, the highest-confidence match found; output
// is sorted by confidence descending.
func (e *Engine) Validate() (*ValidationReport, error) {
	ideas, err := e.store.Parse()
	if err != nil {
		return nil, err
	}

	var active []backlog.Idea
	for _, idea := range ideas {
		if idea.Status == backlog.StatusActive {
			active = append(active, idea)
		}
	}

	today := e.now()
	report := &ValidationReport{
		Validated:      len(active),
		Actions:        []Action{},
		Target:         e.cfg.TargetMax,
		LastValidation: today.Format("2006-01-02"),
	}
	if len(active) == 0 {
		return report, nil
	}

	skills := scanSkills(filepath.Join(e.vault, e.cfg.SkillsDir))
	tools := scanTools(filepath.Join(e.vault, e.cfg.ToolsDir))
	shipped := scanShippedWIP(filepath.Join(e.vault, e.cfg.WIPFile))
	capDone := scanCapabilitiesDone(filepath.Join(e.vault, e.cfg.ReportsDir))

	for _, idea := range active {
		ideaText := idea.Title + " " + idea.Description

		var best *Action

		consider := func(action, reason string, confidence float64) {
			confidence = math.Round(confidence*100) / 100
			if best == nil || confidence > best.Confidence {
				best = &Action{
					ID: idea.ID, Title: idea.Title, Score: idea.Score,
					Action: action, Reason: reason, Confidence: confidence,
				}
			}
		}

		for _, s := range skills {
			if sim := textsim.Ratio(ideaText, s); sim > skillKillBar {
				name := strings.SplitN(s, " ", 2)[0]
				consider("kill", fmt.Sprintf("Skill /%s already provides this capability", name), sim)
			}
		}
		for _, t := range tools {
			if sim := textsim.Ratio(ideaText, t); sim > toolKillBar {
				name := strings.SplitN(t, " ", 2)[0]
				consider("kill", fmt.Sprintf("Tool '%s' already provides this", name), sim)
			}
		}
		for _, w := range shipped {
			if sim := textsim.Ratio(ideaText, w); sim > wipKillBar {
				consider("kill", fmt.Sprintf("Shipped in WIP: '%s'", w), sim)
			}
		}
		for _, done := range capDone {
			sim := textsim.Ratio(ideaText, done)
			if sim > capKillBar {
				consider("kill", fmt.Sprintf("Capabilities report marked done: '%s'", done), sim)
			} else if sim > capDownrankBar && (best == nil || best.Confidence < capKillBar) {
				consider("downrank", fmt.Sprintf("Partially addressed by capabilities report: '%s'", done), sim)
			}
		}

		if best == nil {
			best = e.staleness(idea, today)
		}

		if best != nil {
			if best.Confidence > maxConfidence {
				best.Confidence = maxConfidence
			}
			report.Actions = append(report.Actions, *best)
		}
	}

	sort.SliceStable(report.Actions, func(i, j int) bool {
		return report.Actions[i].Confidence > report.Actions[j].Confidence
	})
	report.Healthy = len(active) - len(report.Actions)
	if over := len(active) - e.cfg.TargetMax; over > 0 {
		report.OverTargetBy = over
	}

	state := LoadState(e.statePath())
	state.LastValidation = report.LastValidation
	if err := state.Save(e.statePath()); err != nil {
		return nil, err
	}
	return report, nil
}

// staleness applies the two age-based checks in order: general age decay,
// then the shorter shelf life for low-conviction automated ideas.
func (e *Engine) staleness(idea backlog.Idea, today time.Time) *Action {
	captured, err := time.Parse("2006-01-02", idea.Captured)
	if err != nil {
		return nil
	}
	ageDays := int(today.Sub(captured).Hours() / 24)

	lastTouch, err := time.Parse("2006-01-02", idea.LastTouched())
	if err != nil {
		lastTouch = captured
	}
	sinceTouch := int(today.Sub(lastTouch).Hours() / 24)

	if ageDays >= e.cfg.StaleDays && sinceTouch >= e.cfg.StaleDays {
		conf := staleConfBase + float64(ageDays-e.cfg.StaleDays)/180
		if conf > staleConfCap {
			conf = staleConfCap
		}
		return &Action{
			ID: idea.ID, Title: idea.Title, Score: idea.Score,
			Action:     "archive_stale",
			Reason:     fmt.Sprintf("Idea is %d days old with no enrichment in %d days", ageDays, sinceTouch),
			Confidence: math.Round(conf*100) / 100,
		}
	}

	if strings.Contains(idea.Author, "AI") && ageDays >= e.cfg.AIShelfLifeDays && idea.Score < e.cfg.AILowConvictionScore {
		conf := aiShelfConfBase + float64(ageDays-e.cfg.AIShelfLifeDays)/120
		return &Action{
			ID: idea.ID, Title: idea.Title, Score: idea.Score,
			Action: "archive_stale",
			Reason: fmt.Sprintf("AI-generated idea, score %d (below %d), %d days old",
				idea.Score, e.cfg.AILowConvictionScore, ageDays),
			Confidence: math.Round(conf*100) / 100,
		}
	}
	return nil
}

var (
	skillDescLine = regexp.MustCompile(`(?m)^description:\s*(.+)$`)
	wipDecoration = regexp.MustCompile(`^[⭐🔥💡\d.\s]+`)
	wipStatusLine = regexp.MustCompile(`\*\*Status:\*\*\s*(.*)`)
	capDoneRow    = regexp.MustCompile(`(?m)^\|\s*([^|\n]+?)\s*\|.*✅\s*Done\s*\|`)
)

// scanSkills reads each skill directory's SKILL.md and returns
// "name description" strings for similarity matching. Directories
// prefixed with "_" or "." are skipped.
func scanSkills(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var skills []string
	for _, ent := range entries {
		if !ent.IsDir() || strings.HasPrefix(ent.Name(), "_") || strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, ent.Name(), "SKILL.md"))
		if err != nil {
			continue
		}
		desc := ""
		if m := skillDescLine.FindStringSubmatch(string(data)); m != nil {
			desc = strings.TrimSpace(m[1])
		}
		skills = append(skills, strings.TrimSpace(ent.Name()+" "+desc))
	}
	return skills
}

// scanTools treats each Markdown file in the tools directory as one tool
// definition: name from the file stem, description from a "description:"
// line or the first plain text line.
func scanTools(dir string) []string {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil
	}

	var tools []string
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".md")
		if strings.HasPrefix(name, "_") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		desc := ""
		if m := skillDescLine.FindStringSubmatch(string(data)); m != nil {
			desc = strings.TrimSpace(m[1])
		} else {
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				desc = line
				break
			}
		}
		if len(desc) > 200 {
			desc = desc[:200]
		}
		tools = append(tools, strings.TrimSpace(name+" "+desc))
	}
	return tools
}

// scanShippedWIP returns titles of work items whose status marks them
// shipped or completed.
func scanShippedWIP(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var shipped []string
	sections := strings.Split(string(data), "### ")
	for _, section := range sections[1:] {
		titleLine := strings.TrimSpace(strings.SplitN(section, "\n", 2)[0])
		title := strings.TrimSpace(wipDecoration.ReplaceAllString(titleLine, ""))

		status := ""
		if m := wipStatusLine.FindStringSubmatch(section); m != nil {
			status = strings.ToLower(strings.TrimSpace(m[1]))
		}
		if strings.Contains(status, "shipped") || strings.Contains(status, "completed") || strings.Contains(status, "✅") {
			shipped = append(shipped, title)
		}
	}
	return shipped
}

// scanCapabilitiesDone reads the newest capabilities report and returns
// the first-column text of table rows marked done.
func scanCapabilitiesDone(dir string) []string {
	paths, err := filepath.Glob(filepath.Join(dir, "capabilities-*.md"))
	if err != nil || len(paths) == 0 {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	data, err := os.ReadFile(paths[0])
	if err != nil {
		return nil
	}

	var done []string
	for _, m := range capDoneRow.FindAllStringSubmatch(string(data), -1) {
		done = append(done, strings.TrimSpace(m[1]))
	}
	return done
}
