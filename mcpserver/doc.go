// Package mcpserver exposes indexing over the Model Context Protocol.
//
// Two tools are registered: "reindex" triggers an indexing run and reports
// whether it was accepted, and "status" returns the current run status and
// store counts. The server speaks MCP over stdio.
package mcpserver
