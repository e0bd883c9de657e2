package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/poiesic/docindex/ingestion"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
)

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// ReindexResult is the body of a reindex response.
type ReindexResult struct {
	Accepted  bool   `json:"accepted"`
	RunID     string `json:"runId,omitempty"`
	Message   string `json:"message"`
	Processed *int   `json:"processed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatusResult is the body of a status response.
type StatusResult struct {
	ingestion.Status
	Fingerprints int `json:"fingerprints"`
	Chunks       int `json:"chunks"`
}

func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wait := false
	if request.Params.Arguments != nil {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
		}
		if v, present := args["wait"]; present {
			if wait, ok = v.(bool); !ok {
				return nil, newMCPError(ErrorCodeInvalidParams, "wait must be a boolean", map[string]interface{}{
					"param": "wait",
				})
			}
		}
	}

	job, err := s.indexer.Start()
	switch {
	case errors.Is(err, ingestion.ErrAlreadyRunning):
		return jsonResult(ReindexResult{
			Accepted: false,
			RunID:    s.indexer.Status().RunID,
			Message:  "indexing already in progress; request ignored",
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "failed to start indexing", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result := ReindexResult{
		Accepted: true,
		RunID:    job.ID(),
		Message:  "indexing started",
	}
	if !wait {
		return jsonResult(result)
	}

	processed, err := job.Wait(ctx)
	if ctx.Err() != nil {
		result.Message = "stopped waiting; indexing continues"
		return jsonResult(result)
	}
	result.Processed = &processed
	result.Message = "indexing finished"
	if err != nil {
		result.Message = "indexing failed"
		result.Error = err.Error()
	}
	return jsonResult(result)
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.indexer.Counts(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read store counts", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return jsonResult(StatusResult{
		Status:       s.indexer.Status(),
		Fingerprints: counts.Fingerprints,
		Chunks:       counts.Chunks,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode result", nil)
	}
	return mcp.NewToolResultText(string(data)), nil
}
