package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestChecker(t *testing.T, releaseJSON string) (*Checker, string) {
	t.Helper()
	vault := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases/latest" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(releaseJSON))
	}))
	t.Cleanup(srv.Close)

	c := New(vault, "hpungsan/grist")
	c.apiBase = srv.URL
	c.client = srv.Client()
	c.now = func() time.Time { return testNow }
	return c, vault
}

func writeVersion(t *testing.T, vault, version string) {
	t.Helper()
	content := `{"name": "grist-vault", "version": "` + version + `"}`
	if err := os.WriteFile(filepath.Join(vault, "package.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write package.json: %v", err)
	}
}

func TestCheckFindsUpdate(t *testing.T) {
	c, vault := newTestChecker(t, `{"tag_name": "v2.1.0", "body": "New features", "html_url": "https://example.com/rel"}`)
	writeVersion(t, vault, "2.0.3")

	result, err := c.Check(context.Background(), false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.UpdateAvailable {
		t.Fatal("expected update to be available")
	}
	if result.LatestVersion != "2.1.0" || result.CurrentVersion != "2.0.3" {
		t.Errorf("versions = %q -> %q", result.CurrentVersion, result.LatestVersion)
	}
	if result.UpdateType != "minor" {
		t.Errorf("update type = %q, want minor", result.UpdateType)
	}
	if result.Comparison != "older" {
		t.Errorf("comparison = %q, want older", result.Comparison)
	}
	if result.BreakingChanges {
		t.Error("no breaking markers in notes")
	}

	// Notification file must be persisted.
	n, notify := c.Pending()
	if n == nil || !notify {
		t.Fatalf("expected pending notification, got %+v notify=%v", n, notify)
	}
	if n.LatestVersion != "2.1.0" {
		t.Errorf("notification version = %q", n.LatestVersion)
	}
}

func TestCheckUpToDateClearsNotification(t *testing.T) {
	c, vault := newTestChecker(t, `{"tag_name": "v2.0.3", "body": "", "html_url": ""}`)
	writeVersion(t, vault, "2.0.3")

	if err := c.writeNotification("2.0.2", "2.0.1", "", "patch", false); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	result, err := c.Check(context.Background(), false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.UpdateAvailable {
		t.Error("no update expected for same version")
	}
	if result.Comparison != "same" {
		t.Errorf("comparison = %q, want same", result.Comparison)
	}
	if _, notify := c.Pending(); notify {
		t.Error("stale notification should be cleared")
	}
}

func TestCheckDetectsBreakingChanges(t *testing.T) {
	c, vault := newTestChecker(t, `{"tag_name": "v3.0.0", "body": "BREAKING: config format changed", "html_url": ""}`)
	writeVersion(t, vault, "2.0.3")

	result, err := c.Check(context.Background(), false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.BreakingChanges {
		t.Error("expected breaking changes flag")
	}
	if result.UpdateType != "major" {
		t.Errorf("update type = %q, want major", result.UpdateType)
	}
}

func TestCheckRespectsInterval(t *testing.T) {
	c, vault := newTestChecker(t, `{"tag_name": "v9.9.9", "body": "", "html_url": ""}`)
	writeVersion(t, vault, "1.0.0")

	if _, err := c.Check(context.Background(), false); err != nil {
		t.Fatalf("first check: %v", err)
	}

	second, err := c.Check(context.Background(), false)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if second.SkipReason != "too_recent" {
		t.Errorf("skip reason = %q, want too_recent", second.SkipReason)
	}

	forced, err := c.Check(context.Background(), true)
	if err != nil {
		t.Fatalf("forced check: %v", err)
	}
	if forced.SkipReason != "" || !forced.UpdateAvailable {
		t.Errorf("forced check = %+v, want a real result", forced)
	}
}

func TestCheckNetworkFailure(t *testing.T) {
	vault := t.TempDir()
	c := New(vault, "hpungsan/grist")
	c.apiBase = "http://127.0.0.1:0" // unroutable
	c.now = func() time.Time { return testNow }

	result, err := c.Check(context.Background(), true)
	if err != nil {
		t.Fatalf("Check should not error on network failure: %v", err)
	}
	if result.SkipReason != "network_error" {
		t.Errorf("skip reason = %q, want network_error", result.SkipReason)
	}
}

func TestMarkNotifiedSuppressesUntilTomorrow(t *testing.T) {
	c, vault := newTestChecker(t, `{"tag_name": "v2.0.0", "body": "", "html_url": ""}`)
	writeVersion(t, vault, "1.0.0")

	if _, err := c.Check(context.Background(), true); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, notify := c.Pending(); !notify {
		t.Fatal("expected notify before marking")
	}

	if err := c.MarkNotified(); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	if _, notify := c.Pending(); notify {
		t.Error("should not notify twice in one day")
	}

	// Next day the reminder fires again.
	c.now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	if _, notify := c.Pending(); !notify {
		t.Error("expected notify on the next day")
	}
}

func TestDismiss(t *testing.T) {
	c, vault := newTestChecker(t, `{"tag_name": "v2.0.0", "body": "", "html_url": ""}`)
	writeVersion(t, vault, "1.0.0")

	if _, err := c.Check(context.Background(), true); err != nil {
		t.Fatalf("Check: %v", err)
	}
	c.Dismiss()
	if n, notify := c.Pending(); n != nil || notify {
		t.Errorf("expected no pending notification after dismiss, got %+v", n)
	}
}

func TestCurrentVersionFallback(t *testing.T) {
	c := New(t.TempDir(), "hpungsan/grist")
	if got := c.CurrentVersion(); got != "1.0.0" {
		t.Errorf("fallback version = %q, want 1.0.0", got)
	}
}
