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
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// UnknownDocumentStem is used for chunks whose parent has no source name.
const UnknownDocumentStem = "unknown_document"

var (
	// Characters that cannot appear in fingerprint or vector store keys.
	illegalKeyChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	// Anything outside ASCII alphanumerics and Hangul syllables.
	nonStemChars = regexp.MustCompile(`[^a-zA-Z0-9\x{AC00}-\x{D7A3}]`)
)

// DocumentID derives a document id from a file name.
// Key-illegal characters are removed and whitespace runs become hyphens.
func DocumentID(filename string) string {
	id := illegalKeyChars.ReplaceAllString(filename, "")
	id = whitespaceRun.ReplaceAllString(id, "-")
	return "doc-" + id
}

// Stem strips the extension from a source name and replaces every character
// outside [A-Za-z0-9] and Hangul with an underscore.
func Stem(sourceName string) string {
	if sourceName == "" {
		return UnknownDocumentStem
	}
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	if base == "" {
		base = sourceName
	}
	return nonStemChars.ReplaceAllString(base, "_")
}

// StableChunkID builds the id of the n-th (1-based) chunk of a document.
func StableChunkID(stem string, n int) string {
	return stem + "_chunk_" + strconv.Itoa(n)
}
