package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextOf(t *testing.T) {
	assert.Equal(t, "# Title", TextOf(Markdown{Text: "# Title"}))
	assert.Equal(t, "plain", TextOf(PlainText{Text: "plain"}))
	assert.Equal(t, "Hello world", TextOf(HTML{Raw: "<p>Hello <b>world</b></p>"}))
	assert.Equal(t, "", TextOf(nil))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, DocumentTypeMarkdown, Markdown{}.Type())
	assert.Equal(t, DocumentTypeText, PlainText{}.Type())
	assert.Equal(t, DocumentTypeHTML, HTML{}.Type())
}

func TestWithText(t *testing.T) {
	assert.Equal(t, Markdown{Text: "x"}, WithText(Markdown{Text: "y"}, "x"))
	assert.Equal(t, PlainText{Text: "x"}, WithText(PlainText{Text: "y"}, "x"))
	assert.Equal(t, PlainText{Text: "x"}, WithText(HTML{Raw: "<p>y</p>"}, "x"))
}

func TestMetadataClone(t *testing.T) {
	original := Metadata{MetaSource: "a.md"}
	clone := original.Clone()
	clone[MetaChunkIndex] = "1"

	assert.NotContains(t, original, MetaChunkIndex)
	assert.Equal(t, "a.md", clone[MetaSource])
}

func TestSourceDocument_Accessors(t *testing.T) {
	doc := &SourceDocument{
		ID:       DocumentID("a.md"),
		Content:  Markdown{Text: "body"},
		Metadata: Metadata{MetaSource: "a.md"},
	}
	assert.Equal(t, "body", doc.Text())
	assert.Equal(t, "a.md", doc.SourceName())
}

func TestRawOf(t *testing.T) {
	assert.Equal(t, "<p>hi</p>", RawOf(HTML{Raw: "<p>hi</p>"}))
	assert.Equal(t, "# md", RawOf(Markdown{Text: "# md"}))
	assert.Equal(t, "", RawOf(nil))
}
