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

package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docindex/core"
	"golang.org/x/sync/errgroup"
)

const DefaultReadWorkers = 4

// Enumerator lists and reads source documents.
type Enumerator struct {
	patterns []string
	workers  int
	logger   *slog.Logger
}

// Option configures an Enumerator.
type Option func(*Enumerator) error

// WithReadWorkers bounds the number of files read concurrently.
func WithReadWorkers(n int) Option {
	return func(e *Enumerator) error {
		if n < 1 {
			n = 1
		}
		e.workers = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enumerator) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnumerator creates an enumerator over patterns. A pattern is a
// directory (scanned recursively for supported files), a filepath.Match glob,
// or a glob containing a "**" segment that matches any number of directories.
func NewEnumerator(patterns []string, opts ...Option) (*Enumerator, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	e := &Enumerator{
		patterns: slices.Clone(patterns),
		workers:  DefaultReadWorkers,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "enumerator")
	return e, nil
}

// Patterns returns the configured patterns.
func (e *Enumerator) Patterns() []string {
	return slices.Clone(e.patterns)
}

// Enumerate resolves the patterns and reads every matching file.
//
// Documents are returned in lexical path order. Unreadable, empty and
// whitespace-only files are skipped, as is any file whose document id was
// already taken by an earlier path. If a pattern cannot be scanned, the
// documents found so far are returned together with an error wrapping
// ErrEnumeration.
func (e *Enumerator) Enumerate(ctx context.Context) ([]*core.SourceDocument, error) {
	paths, scanErr := e.resolve()
	if scanErr != nil {
		e.logger.Error("pattern scan failed", "err", scanErr)
	}
	e.logger.Info("resolved source files", "count", len(paths))

	contents, err := e.readAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	docs := make([]*core.SourceDocument, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for i, path := range paths {
		text, ok := contents[i]
		if !ok {
			continue
		}
		name := filepath.Base(path)
		if name == "" || name == "." || name == string(filepath.Separator) {
			e.logger.Warn("skipping file without a name", "path", path)
			continue
		}
		if strings.TrimSpace(text) == "" {
			e.logger.Warn("skipping empty file", "file", name)
			continue
		}

		id := core.DocumentID(name)
		if prev, dup := seen[id]; dup {
			e.logger.Warn("skipping file with duplicate document id", "file", path, "id", id, "kept", prev)
			continue
		}
		seen[id] = path

		content := contentFor(name, text)
		docs = append(docs, &core.SourceDocument{
			ID:       id,
			Content:  content,
			Metadata: BuildMetadata(name, path, content),
		})
		e.logger.Debug("loaded document", "file", name, "id", id, "size", len(text))
	}

	if scanErr != nil {
		return docs, fmt.Errorf("%w: %w", ErrEnumeration, scanErr)
	}
	return docs, nil
}

// resolve expands every pattern into a sorted, de-duplicated path list.
// On error the paths resolved before the failing pattern are returned.
func (e *Enumerator) resolve() ([]string, error) {
	set := make(map[string]struct{})
	var scanErr error
	for _, pattern := range e.patterns {
		matches, err := e.expand(pattern)
		if err != nil {
			scanErr = fmt.Errorf("pattern %q: %w", pattern, err)
			break
		}
		for _, m := range matches {
			set[filepath.Clean(m)] = struct{}{}
		}
	}

	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, scanErr
}

func (e *Enumerator) expand(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		return e.walk(pattern, func(path string) bool { return supported(path) })
	}

	if root, rest, ok := splitDoubleStar(pattern); ok {
		return e.walk(root, func(path string) bool {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return false
			}
			return matchDoubleStar(rest, rel)
		})
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

// walk returns regular files under root accepted by keep. Hidden directories
// are not descended into. A failure to read root itself is returned; failures
// below root are skipped.
func (e *Enumerator) walk(root string, keep func(path string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			e.logger.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && keep(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// splitDoubleStar splits "docs/**/*.md" into ("docs", "**/*.md").
func splitDoubleStar(pattern string) (root, rest string, ok bool) {
	pattern = filepath.ToSlash(pattern)
	idx := strings.Index(pattern, "**")
	if idx < 0 {
		return "", "", false
	}
	root = strings.TrimSuffix(pattern[:idx], "/")
	if root == "" {
		root = "."
	}
	return filepath.FromSlash(root), pattern[idx:], true
}

// matchDoubleStar matches a slash-separated relative path against a pattern
// whose "**" segments match zero or more path segments.
func matchDoubleStar(pattern, rel string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(filepath.ToSlash(rel), "/"))
}

func matchSegments(pattern, path []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			pattern = pattern[1:]
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(path); i++ {
				if matchSegments(pattern, path[i:]) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 {
			return false
		}
		if ok, err := filepath.Match(pattern[0], path[0]); err != nil || !ok {
			return false
		}
		pattern, path = pattern[1:], path[1:]
	}
	return len(path) == 0
}

// readAll reads paths concurrently. Files that cannot be read are logged and
// left out of the result map; only context cancellation is returned.
func (e *Enumerator) readAll(ctx context.Context, paths []string) (map[int]string, error) {
	results := make([]*string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := readText(path)
			if err != nil {
				e.logger.Warn("skipping unreadable file", "file", path, "err", err)
				return nil
			}
			results[i] = &text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int]string, len(paths))
	for i, r := range results {
		if r != nil {
			out[i] = *r
		}
	}
	return out, nil
}

// readText reads a file as UTF-8 with "\n" line endings and no trailing newline.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSuffix(text, "\n"), nil
}
