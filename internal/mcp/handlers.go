package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/config"
	"github.com/hpungsan/grist/internal/errors"
	"github.com/hpungsan/grist/internal/health"
	"github.com/hpungsan/grist/internal/synthesis"
	"github.com/hpungsan/grist/internal/updater"
	"github.com/hpungsan/grist/internal/vaultsearch"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	cfg      *config.Config
	store    *backlog.Store
	searcher vaultsearch.Searcher
	engine   *synthesis.Engine
	checker  *updater.Checker
	events   *health.Store // optional; nil disables the side channel
}

// NewHandlers creates a new Handlers instance. events may be nil.
func NewHandlers(cfg *config.Config, store *backlog.Store, searcher vaultsearch.Searcher,
	engine *synthesis.Engine, checker *updater.Checker, events *health.Store) *Handlers {
	return &Handlers{
		cfg:      cfg,
		store:    store,
		searcher: searcher,
		engine:   engine,
		checker:  checker,
		events:   events,
	}
}

// Request types for each tool

// CaptureRequest represents the arguments for capture_idea.
type CaptureRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ListRequest represents the arguments for list_ideas.
type ListRequest struct {
	Category string `json:"category,omitempty"`
	MinScore *int   `json:"min_score,omitempty"`
	Status   string `json:"status,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// DetailsRequest represents the arguments for get_idea_details.
type DetailsRequest struct {
	IdeaID string `json:"idea_id"`
}

// MarkImplementedRequest represents the arguments for mark_implemented.
type MarkImplementedRequest struct {
	IdeaID             string `json:"idea_id"`
	ImplementationDate string `json:"implementation_date,omitempty"`
}

// SynthesizeRequest represents the arguments for both synthesis tools.
type SynthesizeRequest struct {
	DaysBack int `json:"days_back,omitempty"`
}

// EnrichRequest represents the arguments for enrich_idea.
type EnrichRequest struct {
	IdeaID   string `json:"idea_id"`
	Evidence string `json:"evidence"`
	Source   string `json:"source"`
}

// CheckUpdatesRequest represents the arguments for check_for_updates.
type CheckUpdatesRequest struct {
	Force bool `json:"force,omitempty"`
}

// Handler implementations

// HandleCapture handles the capture_idea tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Title == "" || input.Description == "" {
		return errorResult(errors.NewInvalidRequest("title and description are required")), nil
	}

	category := input.Category
	if category == "" {
		category = backlog.DefaultCategory
	}
	if !backlog.ValidCategory(category) {
		return errorResult(errors.NewInvalidCategory(category, backlog.Categories)), nil
	}

	ideas, err := h.store.Parse()
	if err != nil {
		return h.internalError("capture_idea", err), nil
	}

	similar := synthesis.FindSimilar(h.cfg, h.searcher, ideas, input.Title, input.Description)
	if len(similar) > 0 && similar[0].Similarity > h.cfg.DuplicateBar {
		return errorResult(errors.NewDuplicateIdea(input.Title, similar)), nil
	}

	id, err := h.store.NextID()
	if err != nil {
		return h.internalError("capture_idea", err), nil
	}
	idea := backlog.Idea{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Category:    category,
		Score:       0,
		Captured:    time.Now().Format("2006-01-02"),
	}
	if err := h.store.Insert(idea); err != nil {
		return h.internalError("capture_idea", err), nil
	}

	h.fire("idea_captured", map[string]any{"category": category})

	return successResult(map[string]any{
		"success":  true,
		"idea_id":  id,
		"title":    input.Title,
		"category": category,
		"message":  "Idea captured. It enters the queue unranked until the next scoring pass.",
	})
}

// HandleList handles the list_ideas tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	ideas, err := h.store.Parse()
	if err != nil {
		return h.internalError("list_ideas", err), nil
	}

	status := input.Status
	if status == "" {
		status = backlog.StatusActive
	}

	filtered := make([]backlog.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Status != status {
			continue
		}
		if input.Category != "" && idea.Category != input.Category {
			continue
		}
		if input.MinScore != nil && idea.Score < *input.MinScore {
			continue
		}
		filtered = append(filtered, idea)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return successResult(map[string]any{
		"ideas": filtered,
		"count": len(filtered),
	})
}

// HandleDetails handles the get_idea_details tool call.
func (h *Handlers) HandleDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DetailsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.IdeaID == "" {
		return errorResult(errors.NewInvalidRequest("idea_id is required")), nil
	}

	idea, ok, err := h.store.Get(input.IdeaID)
	if err != nil {
		return h.internalError("get_idea_details", err), nil
	}
	if !ok {
		return errorResult(errors.NewNotFound(input.IdeaID)), nil
	}

	return successResult(map[string]any{
		"success": true,
		"idea":    idea,
	})
}

// HandleMarkImplemented handles the mark_implemented tool call.
func (h *Handlers) HandleMarkImplemented(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MarkImplementedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.IdeaID == "" {
		return errorResult(errors.NewInvalidRequest("idea_id is required")), nil
	}

	date := input.ImplementationDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	result, err := h.store.MarkImplemented(input.IdeaID, date)
	if err != nil {
		if errors.Is(err, errors.ErrInternal) {
			return h.internalError("mark_implemented", err), nil
		}
		return errorResult(err), nil
	}

	h.fire("idea_implemented", nil)

	return successResult(map[string]any{
		"success":          true,
		"idea_id":          result.IdeaID,
		"title":            result.Title,
		"implemented_date": result.ImplementedDate,
		"message":          fmt.Sprintf("%s archived as implemented.", result.IdeaID),
	})
}

// HandleStats handles the get_backlog_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.Stats()
	if err != nil {
		return h.internalError("get_backlog_stats", err), nil
	}
	return successResult(stats)
}

// HandleSynthesizeChangelog handles the synthesize_changelog tool call.
func (h *Handlers) HandleSynthesizeChangelog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SynthesizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	report, err := h.engine.SynthesizeChangelog(input.DaysBack)
	if err != nil {
		return h.internalError("synthesize_changelog", err), nil
	}
	return successResult(report)
}

// HandleSynthesizeLearnings handles the synthesize_learnings tool call.
func (h *Handlers) HandleSynthesizeLearnings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SynthesizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	report, err := h.engine.SynthesizeLearnings(input.DaysBack)
	if err != nil {
		return h.internalError("synthesize_learnings", err), nil
	}
	return successResult(report)
}

// HandleEnrich handles the enrich_idea tool call.
func (h *Handlers) HandleEnrich(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EnrichRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.IdeaID == "" || input.Evidence == "" || input.Source == "" {
		return errorResult(errors.NewInvalidRequest("idea_id, evidence, and source are required")), nil
	}

	if err := h.store.Enrich(input.IdeaID, input.Evidence, input.Source); err != nil {
		if errors.Is(err, errors.ErrInternal) {
			return h.internalError("enrich_idea", err), nil
		}
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"success": true,
		"idea_id": input.IdeaID,
		"message": fmt.Sprintf("Evidence appended to %s.", input.IdeaID),
	})
}

// HandleValidate handles the validate_backlog tool call.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := h.engine.Validate()
	if err != nil {
		return h.internalError("validate_backlog", err), nil
	}
	return successResult(report)
}

// HandleCheckUpdates handles the check_for_updates tool call.
func (h *Handlers) HandleCheckUpdates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckUpdatesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.checker.Check(ctx, input.Force)
	if err != nil {
		return h.internalError("check_for_updates", err), nil
	}
	return successResult(result)
}

// HandlePendingUpdate handles the get_pending_update_notification tool call.
func (h *Handlers) HandlePendingUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, notify := h.checker.Pending()
	if !notify || n == nil {
		return successResult(map[string]any{"should_notify": false})
	}
	return successResult(map[string]any{
		"should_notify":   true,
		"latest_version":  n.LatestVersion,
		"current_version": n.CurrentVersion,
		"update_type":     n.UpdateType,
		"release_url":     n.ReleaseURL,
	})
}

// HandleMarkNotified handles the mark_update_notified tool call.
func (h *Handlers) HandleMarkNotified(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.checker.MarkNotified(); err != nil {
		return h.internalError("mark_update_notified", err), nil
	}
	return successResult(map[string]any{"success": true})
}

// HandleDismissUpdate handles the dismiss_update tool call.
func (h *Handlers) HandleDismissUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.checker.Dismiss()
	return successResult(map[string]any{"success": true})
}

// Side channel helpers

// fire records a usage event, best-effort.
func (h *Handlers) fire(name string, context map[string]any) {
	if h.events == nil {
		return
	}
	_ = h.events.Fire("grist-mcp", name, context)
}

// internalError reports an unexpected failure to the health channel and
// returns a sanitized error result.
func (h *Handlers) internalError(tool string, err error) *mcp.CallToolResult {
	if h.events != nil {
		_ = h.events.LogError("grist-mcp", err.Error(), map[string]any{"tool": tool})
	}
	return errorResult(errors.NewInternal(err))
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gristErr, ok := err.(*errors.GristError); ok {
		errorObj := map[string]any{
			"code":    gristErr.Code,
			"message": gristErr.Message,
			"status":  gristErr.Status,
		}
		if gristErr.Code != errors.ErrInternal && gristErr.Details != nil {
			errorObj["details"] = gristErr.Details
		}
		payload = map[string]any{"success": false, "error": errorObj}
	} else {
		payload = map[string]any{
			"success": false,
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
