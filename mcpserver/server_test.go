package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/poiesic/docindex"
	"github.com/poiesic/docindex/ai/mock"
	"github.com/poiesic/docindex/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, provider *mock.MockProvider) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte("Install the package and run it."), 0644))

	cfg := config.Default()
	cfg.Source.Patterns = []string{dir}
	cfg.Commit.Pacing = 0
	idx, err := docindex.NewIndexer(cfg, docindex.WithProvider(provider), docindex.WithInMemoryStorage())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return NewServer(idx, nil)
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out T
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestReindex_Wait(t *testing.T) {
	s := newTestServer(t, mock.NewMockProvider("m"))

	result, err := s.handleReindex(context.Background(), callTool("reindex", map[string]interface{}{"wait": true}))
	require.NoError(t, err)

	body := decode[ReindexResult](t, result)
	assert.True(t, body.Accepted)
	assert.NotEmpty(t, body.RunID)
	require.NotNil(t, body.Processed)
	assert.Equal(t, 1, *body.Processed)
	assert.Equal(t, "indexing finished", body.Message)

	status, err := s.handleStatus(context.Background(), callTool("status", nil))
	require.NoError(t, err)
	st := decode[StatusResult](t, status)
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.ProcessedCount)
	assert.Equal(t, body.RunID, st.RunID)
	assert.Equal(t, 1, st.Fingerprints)
	assert.Equal(t, 1, st.Chunks)
}

func TestReindex_RejectedWhileRunning(t *testing.T) {
	provider := mock.NewMockProvider("m")
	release := make(chan struct{})
	provider.MockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 8)
		}
		return out, nil
	}
	s := newTestServer(t, provider)
	defer close(release)

	result, err := s.handleReindex(context.Background(), callTool("reindex", nil))
	require.NoError(t, err)
	first := decode[ReindexResult](t, result)
	require.True(t, first.Accepted)
	assert.Nil(t, first.Processed)

	require.Eventually(t, func() bool { return provider.MockEmbedder().CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	result, err = s.handleReindex(context.Background(), callTool("reindex", nil))
	require.NoError(t, err)
	second := decode[ReindexResult](t, result)
	assert.False(t, second.Accepted)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Contains(t, second.Message, "already in progress")

	status, err := s.handleStatus(context.Background(), callTool("status", nil))
	require.NoError(t, err)
	assert.True(t, decode[StatusResult](t, status).Running)
}

func TestReindex_InvalidArguments(t *testing.T) {
	s := newTestServer(t, mock.NewMockProvider("m"))

	_, err := s.handleReindex(context.Background(), callTool("reindex", map[string]interface{}{"wait": "yes"}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := newTestServer(t, mock.NewMockProvider("m"))
	assert.NotNil(t, s.MCPServer())
	assert.Equal(t, "reindex", reindexTool().Name)
	assert.Equal(t, "status", statusTool().Name)
}
