package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"capture_idea": {
		def:     captureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture },
	},
	"list_ideas": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"get_idea_details": {
		def:     detailsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDetails },
	},
	"mark_implemented": {
		def:     markImplementedToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMarkImplemented },
	},
	"get_backlog_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
	"synthesize_changelog": {
		def:     synthChangelogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSynthesizeChangelog },
	},
	"synthesize_learnings": {
		def:     synthLearningsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSynthesizeLearnings },
	},
	"enrich_idea": {
		def:     enrichToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEnrich },
	},
	"validate_backlog": {
		def:     validateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleValidate },
	},
	"check_for_updates": {
		def:     checkUpdatesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCheckUpdates },
	},
	"get_pending_update_notification": {
		def:     pendingUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePendingUpdate },
	},
	"mark_update_notified": {
		def:     markNotifiedToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMarkNotified },
	},
	"dismiss_update": {
		def:     dismissUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDismissUpdate },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with Grist tools registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"grist",
		version,
		server.WithToolCapabilities(true),
	)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(h *Handlers, version string) error {
	if h.events != nil {
		_ = h.events.MarkHealthy("grist-mcp")
	}
	return server.ServeStdio(NewServer(h, version))
}
