package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/docindex/core"
)

var (
	fencedCodeBlock = regexp.MustCompile("(?s)```.*?```")
	htmlTag         = regexp.MustCompile(`<[^>]*>`)
	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	trailingSpace   = regexp.MustCompile(`(?m)[ \t]+$`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// NormalizeOptions selects the rewrites a Normalizer applies.
type NormalizeOptions struct {
	RemoveHTMLTags      bool `toml:"remove_html_tags"`
	RemoveCodeBlocks    bool `toml:"remove_code_blocks"`
	NormalizeWhitespace bool `toml:"normalize_whitespace"`
	NormalizeNewlines   bool `toml:"normalize_newlines"`
}

// Enabled reports whether any rewrite is selected.
func (o NormalizeOptions) Enabled() bool {
	return o.RemoveHTMLTags || o.RemoveCodeBlocks || o.NormalizeWhitespace || o.NormalizeNewlines
}

// Normalizer rewrites document text before splitting.
type Normalizer struct {
	opts NormalizeOptions
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts NormalizeOptions) *Normalizer {
	return &Normalizer{opts: opts}
}

// Enabled reports whether the normalizer changes anything.
func (n *Normalizer) Enabled() bool {
	return n != nil && n.opts.Enabled()
}

// NormalizeText applies the selected rewrites to text.
func (n *Normalizer) NormalizeText(text string) string {
	if n.opts.RemoveCodeBlocks {
		text = fencedCodeBlock.ReplaceAllString(text, "")
	}
	if n.opts.RemoveHTMLTags {
		text = htmlTag.ReplaceAllString(text, "")
	}
	if n.opts.NormalizeWhitespace {
		text = horizontalSpace.ReplaceAllString(text, " ")
		text = trailingSpace.ReplaceAllString(text, "")
	}
	if n.opts.NormalizeNewlines {
		text = blankLines.ReplaceAllString(text, "\n\n")
	}
	return strings.TrimSpace(text)
}

// Normalize returns a copy of doc with normalized text. doc itself is not
// modified; if the text is unchanged doc is returned as is.
func (n *Normalizer) Normalize(doc *core.SourceDocument) *core.SourceDocument {
	if !n.Enabled() {
		return doc
	}

	original := doc.Text()
	if _, isHTML := doc.Content.(core.HTML); isHTML && n.opts.RemoveHTMLTags {
		original = core.RawOf(doc.Content)
	}
	normalized := n.NormalizeText(original)
	if normalized == doc.Text() {
		return doc
	}

	md := doc.Metadata.Clone()
	md[core.MetaNormalized] = "true"
	md[core.MetaNormalizedLen] = strconv.Itoa(len([]rune(normalized)))
	return &core.SourceDocument{
		ID:       doc.ID,
		Content:  core.WithText(doc.Content, normalized),
		Metadata: md,
	}
}
