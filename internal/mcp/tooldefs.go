package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/grist/internal/backlog"
)

var captureToolDef = mcp.NewTool("capture_idea",
	mcp.WithDescription(
		"Capture an improvement idea into the backlog. Rejects near-duplicates and "+
			"reports the similar ideas instead so the backlog stays deduplicated.",
	),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Short idea title"),
	),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("What the idea is and why it matters"),
	),
	mcp.WithString("category",
		mcp.Description("One of: "+strings.Join(backlog.Categories, ", ")+" (default: system)"),
	),
)

var listToolDef = mcp.NewTool("list_ideas",
	mcp.WithDescription("List backlog ideas, optionally filtered by category, minimum score, or status."),
	mcp.WithString("category",
		mcp.Description("Filter by category"),
	),
	mcp.WithNumber("min_score",
		mcp.Description("Only ideas at or above this score"),
	),
	mcp.WithString("status",
		mcp.Description("Filter by status: active or implemented (default: active)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max ideas to return (default: 10)"),
	),
)

var detailsToolDef = mcp.NewTool("get_idea_details",
	mcp.WithDescription("Fetch one idea with its full metadata and enrichment history."),
	mcp.WithString("idea_id",
		mcp.Required(),
		mcp.Description("Idea id, e.g. idea-042"),
	),
)

var markImplementedToolDef = mcp.NewTool("mark_implemented",
	mcp.WithDescription("Move an idea out of the priority queue into the archive with an implementation date."),
	mcp.WithString("idea_id",
		mcp.Required(),
		mcp.Description("Idea id, e.g. idea-042"),
	),
	mcp.WithString("implementation_date",
		mcp.Description("YYYY-MM-DD (default: today)"),
	),
)

var statsToolDef = mcp.NewTool("get_backlog_stats",
	mcp.WithDescription("Backlog counts by status, category, and priority band, plus staleness health metrics."),
)

var synthChangelogToolDef = mcp.NewTool("synthesize_changelog",
	mcp.WithDescription(
		"Scan recent changelog entries for relevant features and turn them into new "+
			"or enriched backlog ideas. Watermarked: content from previous runs is skipped.",
	),
	mcp.WithNumber("days_back",
		mcp.Description("Lookback window in days (default: 30)"),
	),
)

var synthLearningsToolDef = mcp.NewTool("synthesize_learnings",
	mcp.WithDescription(
		"Scan pending session learnings and turn actionable ones into new or enriched "+
			"backlog ideas. Watermarked: content from previous runs is skipped.",
	),
	mcp.WithNumber("days_back",
		mcp.Description("Lookback window in days (default: 30)"),
	),
)

var enrichToolDef = mcp.NewTool("enrich_idea",
	mcp.WithDescription("Append a dated evidence annotation to an existing idea. Never overwrites prior annotations."),
	mcp.WithString("idea_id",
		mcp.Required(),
		mcp.Description("Idea id, e.g. idea-042"),
	),
	mcp.WithString("evidence",
		mcp.Required(),
		mcp.Description("Why this idea is relevant now"),
	),
	mcp.WithString("source",
		mcp.Required(),
		mcp.Description("Where the evidence came from"),
	),
)

var validateToolDef = mcp.NewTool("validate_backlog",
	mcp.WithDescription(
		"Run redundancy and staleness checks over all active ideas and recommend "+
			"kill, downrank, or archive actions, sorted by confidence.",
	),
)

var checkUpdatesToolDef = mcp.NewTool("check_for_updates",
	mcp.WithDescription("Check GitHub for a newer release. Rate limited to once a day unless forced."),
	mcp.WithBoolean("force",
		mcp.Description("Check even if a check ran recently"),
	),
)

var pendingUpdateToolDef = mcp.NewTool("get_pending_update_notification",
	mcp.WithDescription(
		"Report whether a pending update notification should be shown now. "+
			"Call mark_update_notified after telling the user so they are not reminded again today.",
	),
)

var markNotifiedToolDef = mcp.NewTool("mark_update_notified",
	mcp.WithDescription("Record that the user was told about the pending update today."),
)

var dismissUpdateToolDef = mcp.NewTool("dismiss_update",
	mcp.WithDescription("Clear the pending update notification, typically after upgrading."),
)
