package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode converts the loosely-typed argument map of a tool request into
// the handler's input struct. Round-tripping through JSON keeps the
// field mapping in one place (the struct tags) instead of per-handler
// type assertions.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return input, fmt.Errorf("marshal tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("decode tool arguments: %w", err)
	}
	return input, nil
}
