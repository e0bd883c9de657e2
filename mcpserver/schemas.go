package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func reindexTool() mcp.Tool {
	return mcp.Tool{
		Name: "reindex",
		Description: "Index new and changed documents. Returns immediately unless wait is true. " +
			"A request made while a run is active is not queued; accepted is false.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "Block until the run finishes and report the chunks committed",
					"default":     false,
				},
			},
		},
	}
}

func statusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "status",
		Description: "Report the current or last indexing run and the number of stored fingerprints and chunks",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
