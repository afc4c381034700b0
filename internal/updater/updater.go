// Package updater checks GitHub for newer releases and persists a pending
// update notification in the vault so the user is reminded at most once a
// day across sessions.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	checkIntervalDays = 1

	lastCheckFile    = ".last-update-check"
	notificationFile = ".update-available"

	fetchTimeout = 10 * time.Second
)

// Checker performs release checks for one vault.
type Checker struct {
	vault string

	// API base URL and client are overridable for tests.
	apiBase string
	client  *http.Client
	now     func() time.Time
}

// New builds a Checker for the given vault and GitHub "owner/repo".
func New(vault, repo string) *Checker {
	return &Checker{
		vault:   vault,
		apiBase: "https://api.github.com/repos/" + repo,
		client:  &http.Client{Timeout: fetchTimeout},
		now:     time.Now,
	}
}

// Notification is the persisted pending-update record.
type Notification struct {
	LatestVersion   string `json:"latest_version"`
	CurrentVersion  string `json:"current_version"`
	ReleaseURL      string `json:"release_url"`
	UpdateType      string `json:"update_type"`
	BreakingChanges bool   `json:"breaking_changes"`
	DiscoveredAt    string `json:"discovered_at"`
	LastNotified    string `json:"last_notified,omitempty"`
}

// CheckResult is the payload returned by Check.
type CheckResult struct {
	UpdateAvailable bool   `json:"update_available"`
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version,omitempty"`
	ReleaseNotes    string `json:"release_notes,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty"`
	UpdateType      string `json:"update_type,omitempty"`
	Comparison      string `json:"comparison,omitempty"`
	BreakingChanges bool   `json:"breaking_changes"`
	Message         string `json:"message,omitempty"`
	SkipReason      string `json:"skip_reason,omitempty"`
}

// CurrentVersion reads the installed version from the vault's package.json.
func (c *Checker) CurrentVersion() string {
	data, err := os.ReadFile(filepath.Join(c.vault, "package.json"))
	if err != nil {
		return "1.0.0"
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Version == "" {
		return "1.0.0"
	}
	return pkg.Version
}

func (c *Checker) systemPath(name string) string {
	return filepath.Join(c.vault, "System", name)
}

func (c *Checker) lastCheckTime() (time.Time, bool) {
	data, err := os.ReadFile(c.systemPath(lastCheckFile))
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (c *Checker) saveCheckTime() error {
	path := c.systemPath(lastCheckFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(c.now().Format(time.RFC3339)), 0644)
}

type release struct {
	TagName string `json:"tag_name"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

func (c *Checker) fetchLatestRelease(ctx context.Context) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/releases/latest", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release fetch returned status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// canonical normalizes a version string into semver's "vX.Y.Z" form.
func canonical(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	return "v" + v
}

// versionPart returns the nth dotted component of a version as an int.
func versionPart(v string, n int) int {
	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	if n >= len(parts) {
		return 0
	}
	num, err := strconv.Atoi(parts[n])
	if err != nil {
		return 0
	}
	return num
}

// updateType classifies the jump between two versions.
func updateType(current, latest string) string {
	switch {
	case versionPart(latest, 0) > versionPart(current, 0):
		return "major"
	case versionPart(latest, 1) > versionPart(current, 1):
		return "minor"
	default:
		return "patch"
	}
}

// Check queries GitHub for the latest release. Unless force is set, checks
// more frequent than once a day are skipped. When an update is found the
// pending notification file is written; when up to date it is cleared.
func (c *Checker) Check(ctx context.Context, force bool) (*CheckResult, error) {
	current := c.CurrentVersion()

	if !force {
		if last, ok := c.lastCheckTime(); ok {
			daysSince := int(c.now().Sub(last).Hours() / 24)
			if daysSince < checkIntervalDays {
				return &CheckResult{
					UpdateAvailable: false,
					CurrentVersion:  current,
					Message:         fmt.Sprintf("Last checked %d days ago. Use force to check now.", daysSince),
					SkipReason:      "too_recent",
				}, nil
			}
		}
	}

	rel, err := c.fetchLatestRelease(ctx)
	if err != nil {
		return &CheckResult{
			UpdateAvailable: false,
			CurrentVersion:  current,
			Message:         "Could not fetch release data from GitHub",
			SkipReason:      "network_error",
		}, nil
	}

	if err := c.saveCheckTime(); err != nil {
		return nil, err
	}

	latest := strings.TrimPrefix(rel.TagName, "v")
	notes := rel.Body

	comparison := "same"
	switch semver.Compare(canonical(current), canonical(latest)) {
	case -1:
		comparison = "older"
	case 1:
		comparison = "newer"
	}

	breaking := strings.Contains(strings.ToUpper(notes), "BREAKING") || strings.Contains(notes, "⚠️")
	kind := updateType(current, latest)
	available := comparison == "older"

	if available {
		if err := c.writeNotification(latest, current, rel.HTMLURL, kind, breaking); err != nil {
			return nil, err
		}
	} else {
		c.Dismiss()
	}

	return &CheckResult{
		UpdateAvailable: available,
		CurrentVersion:  current,
		LatestVersion:   latest,
		ReleaseNotes:    notes,
		ReleaseURL:      rel.HTMLURL,
		UpdateType:      kind,
		Comparison:      comparison,
		BreakingChanges: breaking,
	}, nil
}

func (c *Checker) writeNotification(latest, current, url, kind string, breaking bool) error {
	path := c.systemPath(notificationFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Notification{
		LatestVersion:   latest,
		CurrentVersion:  current,
		ReleaseURL:      url,
		UpdateType:      kind,
		BreakingChanges: breaking,
		DiscoveredAt:    c.now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Checker) readNotification() *Notification {
	data, err := os.ReadFile(c.systemPath(notificationFile))
	if err != nil {
		return nil
	}
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	return &n
}

// Pending returns the stored notification and whether the user should be
// told about it now (there is one, and it was not already shown today).
func (c *Checker) Pending() (*Notification, bool) {
	n := c.readNotification()
	if n == nil {
		return nil, false
	}
	if n.LastNotified == "" {
		return n, true
	}
	return n, n.LastNotified < c.now().Format("2006-01-02")
}

// MarkNotified stamps today's date into the notification so the user is
// not reminded again until tomorrow. A missing notification is a no-op.
func (c *Checker) MarkNotified() error {
	n := c.readNotification()
	if n == nil {
		return nil
	}
	n.LastNotified = c.now().Format("2006-01-02")
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.systemPath(notificationFile), data, 0644)
}

// Dismiss deletes the pending notification, typically after the user
// upgrades.
func (c *Checker) Dismiss() {
	os.Remove(c.systemPath(notificationFile))
}
