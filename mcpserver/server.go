package mcpserver

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/poiesic/docindex"
	"github.com/poiesic/docindex/ingestion"
)

const (
	// ServerName is the MCP server name
	ServerName = "docindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Indexer is the part of docindex.Indexer the server needs.
type Indexer interface {
	Start() (*ingestion.Job, error)
	Status() ingestion.Status
	Counts(ctx context.Context) (docindex.Counts, error)
}

// Server wraps the MCP server around an Indexer.
type Server struct {
	mcp     *server.MCPServer
	indexer Indexer
	logger  *slog.Logger
}

// NewServer creates a server with its tools registered.
func NewServer(indexer Indexer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		indexer: indexer,
		logger:  logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio until stdin closes.
func (s *Server) Serve() error {
	s.logger.Info("serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(reindexTool(), s.handleReindex)
	s.mcp.AddTool(statusTool(), s.handleStatus)
}
