// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package splitter

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docindex/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter breaks documents into ordered, bounded chunks.
// Identical input and configuration always produce identical output.
type Splitter struct {
	config Config
	text   textsplitter.TextSplitter
	logger *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter) error

// WithTextSplitter replaces the langchaingo splitter chosen by Kind.
func WithTextSplitter(ts textsplitter.TextSplitter) Option {
	return func(s *Splitter) error {
		if ts == nil {
			return fmt.Errorf("%w: text splitter is nil", ErrInvalidConfig)
		}
		s.text = ts
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a Splitter for config.
func New(config Config, opts ...Option) (*Splitter, error) {
	if config.Kind == "" {
		config.Kind = KindRecursive
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Splitter{
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.text == nil {
		s.text = newTextSplitter(config)
	}
	s.logger = s.logger.With("component", "splitter")
	return s, nil
}

func newTextSplitter(config Config) textsplitter.TextSplitter {
	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(config.ChunkSize),
		textsplitter.WithChunkOverlap(config.ChunkOverlap),
	}
	switch config.Kind {
	case KindMarkdown:
		opts = append(opts,
			textsplitter.WithLenFunc(utf8.RuneCountInString),
			textsplitter.WithCodeBlocks(true),
		)
		return textsplitter.NewMarkdownTextSplitter(opts...)
	case KindToken:
		return textsplitter.NewTokenSplitter(opts...)
	default:
		opts = append(opts, textsplitter.WithLenFunc(utf8.RuneCountInString))
		return textsplitter.NewRecursiveCharacter(opts...)
	}
}

// Config returns the splitter's configuration.
func (s *Splitter) Config() Config {
	return s.config
}

// Split splits docs in order. The first failure aborts the whole split.
func (s *Splitter) Split(docs []*core.SourceDocument) ([]core.Chunk, error) {
	var chunks []core.Chunk
	for _, doc := range docs {
		docChunks, err := s.SplitDocument(doc)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

// SplitDocument splits one document. Chunks carry the parent id, their
// 1-based position and a copy of the document metadata; IDs are left empty.
func (s *Splitter) SplitDocument(doc *core.SourceDocument) ([]core.Chunk, error) {
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	spans, err := s.text.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", doc.ID, err)
	}

	spans = coalesce(spans, s.config.MinChunkChars, s.config.maxChars())
	spans = dropShort(spans, s.config.MinChunkLength)
	if len(spans) > s.config.MaxChunkCount {
		s.logger.Warn("document exceeds max chunk count, truncating",
			"id", doc.ID, "chunks", len(spans), "max", s.config.MaxChunkCount)
		spans = spans[:s.config.MaxChunkCount]
	}

	chunks := make([]core.Chunk, len(spans))
	for i, span := range spans {
		md := doc.Metadata.Clone()
		md[core.MetaParentID] = doc.ID
		chunks[i] = core.Chunk{
			ParentID:      doc.ID,
			SequenceIndex: i + 1,
			Text:          span,
			Metadata:      md,
		}
	}
	s.logger.Debug("split document", "id", doc.ID, "chunks", len(chunks))
	return chunks, nil
}

// coalesce merges spans shorter than minChars into the span that follows,
// without letting a merged span exceed maxChars.
func coalesce(spans []string, minChars, maxChars int) []string {
	if minChars <= 0 || len(spans) < 2 {
		return spans
	}

	out := make([]string, 0, len(spans))
	current := spans[0]
	for _, next := range spans[1:] {
		curLen := utf8.RuneCountInString(current)
		if curLen < minChars && curLen+1+utf8.RuneCountInString(next) <= maxChars {
			current = current + "\n" + next
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}

// dropShort removes spans whose trimmed text is shorter than minLength.
func dropShort(spans []string, minLength int) []string {
	out := make([]string, 0, len(spans))
	for _, span := range spans {
		trimmed := strings.TrimSpace(span)
		if trimmed == "" || utf8.RuneCountInString(trimmed) < minLength {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
