package ingestion

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/splitter"
	"github.com/poiesic/docindex/storage"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory FingerprintStore.
type memStore struct {
	mu     sync.Mutex
	hashes map[string]string
	getErr error
	setErr error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{hashes: make(map[string]string)}
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	h, ok := m.hashes[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return h, nil
}

func (m *memStore) Set(ctx context.Context, key, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.hashes[key] = hash
	return nil
}

func (m *memStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hashes), nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hashes[key]
	return ok
}

// fakeIndex records every Add call and fails the calls listed in failOn
// (1-based).
type fakeIndex struct {
	mu      sync.Mutex
	batches [][]core.Chunk
	failOn  map[int]bool
}

func (f *fakeIndex) Add(ctx context.Context, chunks []core.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]core.Chunk(nil), chunks...))
	if f.failOn[len(f.batches)] {
		return errors.New("vector store unavailable")
	}
	return nil
}

func (f *fakeIndex) sizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.batches))
	for i, b := range f.batches {
		out[i] = len(b)
	}
	return out
}

func (f *fakeIndex) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.batches {
		for _, c := range b {
			out = append(out, c.ID)
		}
	}
	return out
}

func (f *fakeIndex) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// fakeEnumerator returns a fixed document set. When gate is set, Enumerate
// signals entered and blocks until gate is closed.
type fakeEnumerator struct {
	mu      sync.Mutex
	docs    []*core.SourceDocument
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeEnumerator) Enumerate(ctx context.Context) ([]*core.SourceDocument, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs, f.err
}

func (f *fakeEnumerator) set(docs ...*core.SourceDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = docs
}

// countingSplitter wraps a Splitter and counts Split calls.
type countingSplitter struct {
	inner Splitter
	mu    sync.Mutex
	calls int
	panic bool
	err   error
}

func (c *countingSplitter) Split(docs []*core.SourceDocument) ([]core.Chunk, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.panic {
		panic("tokenizer exploded")
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Split(docs)
}

func (c *countingSplitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// pipeSplitter splits text on "|".
type pipeSplitter struct{}

func (pipeSplitter) SplitText(text string) ([]string, error) {
	return strings.Split(text, "|"), nil
}

func newTestSplitter(t *testing.T) *countingSplitter {
	t.Helper()
	cfg := splitter.DefaultConfig()
	cfg.MinChunkChars = 0
	cfg.MinChunkLength = 1
	s, err := splitter.New(cfg, splitter.WithTextSplitter(pipeSplitter{}))
	require.NoError(t, err)
	return &countingSplitter{inner: s}
}

// doc builds a markdown document named name with n "|"-separated parts.
func doc(name string, n int, variant string) *core.SourceDocument {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = variant + " part " + strconv.Itoa(i+1)
	}
	return &core.SourceDocument{
		ID:       core.DocumentID(name),
		Content:  core.Markdown{Text: strings.Join(parts, "|")},
		Metadata: core.Metadata{core.MetaSource: name},
	}
}

type harness struct {
	store      *memStore
	index      *fakeIndex
	enumerator *fakeEnumerator
	splitter   *countingSplitter
	detector   *ChangeDetector
	pipeline   *Pipeline
}

func newHarness(t *testing.T, detectorOpts []DetectorOption, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:      newMemStore(),
		index:      &fakeIndex{failOn: map[int]bool{}},
		enumerator: &fakeEnumerator{},
		splitter:   newTestSplitter(t),
	}
	var err error
	h.detector, err = NewChangeDetector(h.store, detectorOpts...)
	require.NoError(t, err)

	opts = append([]Option{WithPacing(0)}, opts...)
	h.pipeline, err = NewPipeline(h.enumerator, h.detector, h.splitter, h.index, opts...)
	require.NoError(t, err)
	t.Cleanup(h.pipeline.Release)
	return h
}

func (h *harness) runOnce(t *testing.T) (int, error) {
	t.Helper()
	job, err := h.pipeline.Start()
	require.NoError(t, err)
	return job.Wait(context.Background())
}
