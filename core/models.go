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

package core

import (
	"regexp"
	"time"
)

// Metadata keys attached to documents and chunks.
const (
	MetaSource        = "source"
	MetaType          = "type"
	MetaPath          = "path"
	MetaContentLength = "content_length"
	MetaLineCount     = "line_count"
	MetaHasHeaders    = "has_headers"
	MetaHasCodeBlocks = "has_code_blocks"
	MetaHasLinks      = "has_links"
	MetaHasImages     = "has_images"
	MetaNormalized    = "normalized"
	MetaNormalizedLen = "normalized_length"
	MetaParentID      = "original_document_id"
	MetaChunkIndex    = "chunk_index"
)

// DocumentType classifies the shape of a source document's content.
type DocumentType string

const (
	DocumentTypeMarkdown DocumentType = "markdown"
	DocumentTypeText     DocumentType = "text"
	DocumentTypeHTML     DocumentType = "html"
)

// Metadata is a flat string map carried by documents and chunks.
type Metadata map[string]string

// Clone returns a copy of m that is safe to modify.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Content is the closed set of document bodies the pipeline understands.
// Implementations live in this package only.
type Content interface {
	Type() DocumentType
	isContent()
}

// Markdown is a markdown document body.
type Markdown struct {
	Text string
}

// PlainText is an unstructured text body.
type PlainText struct {
	Text string
}

// HTML is a raw HTML body. Its text is the markup with tags removed.
type HTML struct {
	Raw string
}

func (Markdown) Type() DocumentType  { return DocumentTypeMarkdown }
func (PlainText) Type() DocumentType { return DocumentTypeText }
func (HTML) Type() DocumentType      { return DocumentTypeHTML }

func (Markdown) isContent()  {}
func (PlainText) isContent() {}
func (HTML) isContent()      {}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// TextOf extracts indexable text from a document body.
func TextOf(c Content) string {
	switch v := c.(type) {
	case Markdown:
		return v.Text
	case PlainText:
		return v.Text
	case HTML:
		return htmlTagPattern.ReplaceAllString(v.Raw, "")
	case nil:
		return ""
	default:
		panic("core: unknown content variant")
	}
}

// RawOf returns a body's content as read, markup included.
func RawOf(c Content) string {
	if h, ok := c.(HTML); ok {
		return h.Raw
	}
	return TextOf(c)
}

// WithText returns a body of the same variant as c holding text.
func WithText(c Content, text string) Content {
	switch c.(type) {
	case Markdown:
		return Markdown{Text: text}
	case HTML:
		// Normalized HTML has already lost its markup.
		return PlainText{Text: text}
	default:
		return PlainText{Text: text}
	}
}

// SourceDocument is a raw document read by the enumerator.
// It is never modified after it is read; later stages derive new values from it.
type SourceDocument struct {
	ID       string
	Content  Content
	Metadata Metadata
}

// Text returns the document's indexable text.
func (d *SourceDocument) Text() string {
	return TextOf(d.Content)
}

// SourceName returns the file name the document was read from, or "".
func (d *SourceDocument) SourceName() string {
	return d.Metadata[MetaSource]
}

// Chunk is a bounded-size fragment of a document.
// ID is empty until the identity assigner runs.
type Chunk struct {
	ID            string
	ParentID      string
	SequenceIndex int
	Text          string
	Metadata      Metadata
}

// ChunkRecord is a chunk as persisted by the local vector index.
type ChunkRecord struct {
	ID            string
	ParentID      string
	SequenceIndex int
	Text          string
	Metadata      Metadata
	Vector        []float32
	Model         string
	IndexedAt     time.Time
}
