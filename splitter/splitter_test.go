package splitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/docindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTextSplitter splits on a fixed separator and counts calls.
type fakeTextSplitter struct {
	sep   string
	err   error
	calls int
}

func (f *fakeTextSplitter) SplitText(text string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return strings.Split(text, f.sep), nil
}

func markdownDoc(id, text string) *core.SourceDocument {
	return &core.SourceDocument{
		ID:       id,
		Content:  core.Markdown{Text: text},
		Metadata: core.Metadata{core.MetaSource: strings.TrimPrefix(id, "doc-")},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinChunkChars = 0
	cfg.MinChunkLength = 1
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.Kind = "sentence" },
		func(c *Config) { c.ChunkSize = 0 },
		func(c *Config) { c.ChunkOverlap = c.ChunkSize },
		func(c *Config) { c.MinChunkChars = -1 },
		func(c *Config) { c.MaxChunkCount = 0 },
	}
	for _, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	}
}

func TestSplitDocument_Metadata(t *testing.T) {
	fake := &fakeTextSplitter{sep: "|"}
	s, err := New(testConfig(), WithTextSplitter(fake))
	require.NoError(t, err)

	doc := markdownDoc("doc-guide.md", "alpha|beta|gamma")
	chunks, err := s.SplitDocument(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Empty(t, c.ID)
		assert.Equal(t, "doc-guide.md", c.ParentID)
		assert.Equal(t, i+1, c.SequenceIndex)
		assert.Equal(t, "doc-guide.md", c.Metadata[core.MetaParentID])
		assert.Equal(t, "guide.md", c.Metadata[core.MetaSource])
	}
	assert.Equal(t, "beta", chunks[1].Text)

	_, leaked := doc.Metadata[core.MetaParentID]
	assert.False(t, leaked, "document metadata must not be modified")
}

func TestSplit_PreservesDocumentOrder(t *testing.T) {
	s, err := New(testConfig(), WithTextSplitter(&fakeTextSplitter{sep: "|"}))
	require.NoError(t, err)

	chunks, err := s.Split([]*core.SourceDocument{
		markdownDoc("doc-b.md", "b1|b2"),
		markdownDoc("doc-a.md", "a1"),
	})
	require.NoError(t, err)

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"b1", "b2", "a1"}, texts)
}

func TestSplit_ErrorAborts(t *testing.T) {
	boom := errors.New("tokenizer failed")
	s, err := New(testConfig(), WithTextSplitter(&fakeTextSplitter{err: boom}))
	require.NoError(t, err)

	_, err = s.Split([]*core.SourceDocument{markdownDoc("doc-a.md", "text")})
	assert.ErrorIs(t, err, boom)
}

func TestSplitDocument_EmptyText(t *testing.T) {
	fake := &fakeTextSplitter{sep: "|"}
	s, err := New(testConfig(), WithTextSplitter(fake))
	require.NoError(t, err)

	chunks, err := s.SplitDocument(markdownDoc("doc-a.md", "   "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, fake.calls)
}

func TestSplitDocument_DropsShortSpans(t *testing.T) {
	cfg := testConfig()
	cfg.MinChunkLength = 5
	s, err := New(cfg, WithTextSplitter(&fakeTextSplitter{sep: "|"}))
	require.NoError(t, err)

	chunks, err := s.SplitDocument(markdownDoc("doc-a.md", "long enough|ab|  \n |another one"))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "long enough", chunks[0].Text)
	assert.Equal(t, "another one", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].SequenceIndex)
}

func TestSplitDocument_CapsChunkCount(t *testing.T) {
	cfg := testConfig()
	cfg.MaxChunkCount = 2
	s, err := New(cfg, WithTextSplitter(&fakeTextSplitter{sep: "|"}))
	require.NoError(t, err)

	chunks, err := s.SplitDocument(markdownDoc("doc-a.md", "one|two|three|four"))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "two", chunks[1].Text)
}

func TestCoalesce(t *testing.T) {
	spans := []string{"aa", "bb", strings.Repeat("c", 10), "dd"}

	assert.Equal(t, []string{"aa\nbb", strings.Repeat("c", 10), "dd"}, coalesce(spans, 5, 10))
	assert.Equal(t, spans, coalesce(spans, 0, 10))
	assert.Equal(t, []string{"aa\nbb\n" + strings.Repeat("c", 10), "dd"}, coalesce(spans, 6, 100))
}

func TestSplit_RecursiveIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 60
	cfg.MinChunkChars = 20
	s, err := New(cfg)
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	doc := markdownDoc("doc-fox.md", text)

	first, err := s.SplitDocument(doc)
	require.NoError(t, err)
	second, err := s.SplitDocument(doc)
	require.NoError(t, err)

	require.Greater(t, len(first), 1)
	assert.Equal(t, first, second)
	for _, c := range first {
		assert.LessOrEqual(t, len([]rune(c.Text)), cfg.ChunkSize)
	}
}

func TestNew_MarkdownKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kind = KindMarkdown
	cfg.ChunkSize = 100
	cfg.MinChunkChars = 0
	s, err := New(cfg)
	require.NoError(t, err)

	chunks, err := s.SplitDocument(markdownDoc("doc-a.md", "# Intro\n\nFirst section text.\n\n# Usage\n\nSecond section text."))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Text, "Intro")
}
