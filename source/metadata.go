package source

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/docindex/core"
)

var (
	markdownHeader = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s`)
	markdownLink   = regexp.MustCompile(`\[[^\]\n]*\]\([^)\n]*\)`)
	markdownImage  = regexp.MustCompile(`!\[[^\]\n]*\]\([^)\n]*\)`)
)

// contentFor picks the body variant from the file extension.
func contentFor(name, text string) core.Content {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return core.Markdown{Text: text}
	case ".html", ".htm":
		return core.HTML{Raw: text}
	default:
		return core.PlainText{Text: text}
	}
}

// supported reports whether a file found by a directory scan is indexable.
func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt", ".html", ".htm":
		return true
	}
	return false
}

// BuildMetadata derives document metadata from its name, path and body.
func BuildMetadata(name, path string, content core.Content) core.Metadata {
	text := core.RawOf(content)
	md := core.Metadata{
		core.MetaSource:        name,
		core.MetaPath:          path,
		core.MetaType:          string(content.Type()),
		core.MetaContentLength: strconv.Itoa(len([]rune(text))),
		core.MetaLineCount:     strconv.Itoa(strings.Count(text, "\n") + 1),
	}

	if content.Type() == core.DocumentTypeMarkdown {
		md[core.MetaHasHeaders] = strconv.FormatBool(markdownHeader.MatchString(text))
		md[core.MetaHasCodeBlocks] = strconv.FormatBool(strings.Contains(text, "```"))
		md[core.MetaHasLinks] = strconv.FormatBool(markdownLink.MatchString(text))
		md[core.MetaHasImages] = strconv.FormatBool(markdownImage.MatchString(text))
	}
	return md
}
