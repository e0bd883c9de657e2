package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docindex/core"
	"github.com/poiesic/docindex/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	detector, err := NewChangeDetector(newMemStore())
	require.NoError(t, err)
	s := newTestSplitter(t)
	index := &fakeIndex{}
	enum := &fakeEnumerator{}

	_, err = NewPipeline(nil, detector, s, index)
	assert.ErrorIs(t, err, ErrEnumeratorRequired)
	_, err = NewPipeline(enum, nil, s, index)
	assert.ErrorIs(t, err, ErrDetectorRequired)
	_, err = NewPipeline(enum, detector, nil, index)
	assert.ErrorIs(t, err, ErrSplitterRequired)
	_, err = NewPipeline(enum, detector, s, nil)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)
	_, err = NewPipeline(enum, detector, s, index, WithBatchSize(0))
	assert.Error(t, err)
}

func TestPipeline_SecondRunWithoutChangesIsEmpty(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 3, "A"), doc("b.md", 2, "B"))

	processed, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 5, processed)
	assert.Equal(t, 2, h.pipeline.Status().ChangedCount)

	processed, err = h.runOnce(t)
	require.NoError(t, err)
	assert.Zero(t, processed)

	status := h.pipeline.Status()
	assert.Equal(t, 2, status.TotalCount)
	assert.Zero(t, status.ChangedCount)
	assert.Zero(t, status.ProcessedCount)
	assert.Equal(t, 1, h.splitter.count(), "splitter must not run without changes")
}

func TestPipeline_OnlyChangedDocumentIsCommitted(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 2, "A"), doc("b.md", 2, "B"), doc("c.md", 2, "C"))
	_, err := h.runOnce(t)
	require.NoError(t, err)

	h.index.batches = nil
	h.enumerator.set(doc("a.md", 2, "A edited"), doc("b.md", 2, "B"), doc("c.md", 2, "C"))
	processed, err := h.runOnce(t)
	require.NoError(t, err)

	status := h.pipeline.Status()
	assert.Equal(t, 3, status.TotalCount)
	assert.Equal(t, 1, status.ChangedCount)
	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"a_chunk_1", "a_chunk_2"}, h.index.ids())
}

func TestPipeline_ChunkIDsAreStableAcrossRuns(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("guide.md", 4, "v1"))
	_, err := h.runOnce(t)
	require.NoError(t, err)
	first := h.index.ids()

	h.index.batches = nil
	h.enumerator.set(doc("guide.md", 4, "v2"))
	_, err = h.runOnce(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"guide_chunk_1", "guide_chunk_2", "guide_chunk_3", "guide_chunk_4"}, first)
	assert.Equal(t, first, h.index.ids())
}

func TestPipeline_BatchArithmetic(t *testing.T) {
	h := newHarness(t, nil, WithBatchSize(20))
	h.enumerator.set(doc("big.md", 45, "x"))

	processed, err := h.runOnce(t)
	require.NoError(t, err)

	assert.Equal(t, []int{20, 20, 5}, h.index.sizes())
	assert.Equal(t, 45, processed)
	assert.Equal(t, 45, h.pipeline.Status().ProcessedCount)
}

func TestPipeline_FailedBatchDoesNotStopLaterBatches(t *testing.T) {
	h := newHarness(t, nil, WithBatchSize(20))
	h.index.failOn[2] = true
	h.enumerator.set(doc("big.md", 45, "x"))

	processed, err := h.runOnce(t)
	require.NoError(t, err, "a failed batch is not a run failure")

	assert.Equal(t, 3, h.index.calls())
	assert.Equal(t, 25, processed)

	status := h.pipeline.Status()
	assert.Equal(t, 25, status.ProcessedCount)
	assert.Equal(t, 1, status.FailedBatches)
	assert.False(t, status.Running)
}

func TestPipeline_EmptyChangeSetShortCircuits(t *testing.T) {
	h := newHarness(t, nil)

	processed, err := h.runOnce(t)
	require.NoError(t, err)

	assert.Zero(t, processed)
	assert.Zero(t, h.splitter.count())
	assert.Zero(t, h.index.calls())
}

func TestPipeline_RejectsOverlappingStart(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 3, "A"))
	h.enumerator.gate = make(chan struct{})
	h.enumerator.entered = make(chan struct{}, 1)

	job, err := h.pipeline.Start()
	require.NoError(t, err)
	assert.True(t, job.Accepted())
	<-h.enumerator.entered

	before := h.pipeline.Status()
	require.True(t, before.Running)

	second, err := h.pipeline.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.False(t, second.Accepted())
	n, waitErr := second.Wait(context.Background())
	assert.Zero(t, n)
	assert.ErrorIs(t, waitErr, ErrAlreadyRunning)
	assert.Equal(t, before, h.pipeline.Status(), "rejected trigger must not touch the active run")

	close(h.enumerator.gate)
	processed, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, processed)
	assert.Equal(t, job.ID(), h.pipeline.Status().RunID)
	assert.False(t, h.pipeline.Running())
}

func TestPipeline_StartDoesNotBlock(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 1, "A"))
	h.enumerator.gate = make(chan struct{})
	h.enumerator.entered = make(chan struct{}, 1)
	defer close(h.enumerator.gate)

	returned := make(chan struct{})
	go func() {
		_, _ = h.pipeline.Start()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Start blocked on the run")
	}
}

func TestPipeline_EnumerationFailureIsFatal(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 1, "A"))
	h.enumerator.err = source.ErrEnumeration

	processed, err := h.runOnce(t)
	assert.ErrorIs(t, err, ErrPipelineStage)
	assert.ErrorIs(t, err, source.ErrEnumeration)
	assert.Zero(t, processed)

	status := h.pipeline.Status()
	assert.False(t, status.Running)
	assert.Zero(t, status.TotalCount, "documents found before the failure are not used")
	assert.Zero(t, h.splitter.count())

	h.enumerator.err = nil
	processed, err = h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestPipeline_SplitFailureIsFatal(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 1, "A"))
	boom := errors.New("tokenizer failed")
	h.splitter.err = boom

	_, err := h.runOnce(t)
	assert.ErrorIs(t, err, ErrPipelineStage)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, h.index.calls())
	assert.False(t, h.pipeline.Running())
}

func TestPipeline_PanicIsRecovered(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 1, "A"))
	h.splitter.panic = true

	_, err := h.runOnce(t)
	assert.ErrorIs(t, err, ErrPipelineStage)
	assert.Contains(t, err.Error(), "split")
	assert.False(t, h.pipeline.Running())

	h.splitter.panic = false
	_, err = h.pipeline.Start()
	assert.NoError(t, err, "lock must be released after a panic")
}

func TestPipeline_StatusAfterRun(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 2, "A"))

	job, err := h.pipeline.Start()
	require.NoError(t, err)
	_, err = job.Wait(context.Background())
	require.NoError(t, err)

	status := h.pipeline.Status()
	assert.False(t, status.Running)
	assert.Equal(t, job.ID(), status.RunID)
	assert.Equal(t, 1, status.TotalCount)
	assert.Equal(t, 1, status.ChangedCount)
	assert.Equal(t, 2, status.ProcessedCount)
	assert.False(t, status.StartedAt.IsZero())
	assert.False(t, status.FinishedAt.Before(status.StartedAt))
}

func TestPipeline_NewRunResetsCounters(t *testing.T) {
	h := newHarness(t, nil, WithBatchSize(2))
	h.index.failOn[1] = true
	h.enumerator.set(doc("a.md", 3, "A"))
	_, err := h.runOnce(t)
	require.NoError(t, err)
	require.Equal(t, 1, h.pipeline.Status().FailedBatches)

	h.enumerator.set()
	_, err = h.runOnce(t)
	require.NoError(t, err)

	status := h.pipeline.Status()
	assert.Zero(t, status.FailedBatches)
	assert.Zero(t, status.ProcessedCount)
	assert.Zero(t, status.TotalCount)
}

func TestPipeline_FingerprintLookupFailureReindexes(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 2, "A"))
	_, err := h.runOnce(t)
	require.NoError(t, err)

	h.store.getErr = errors.New("store offline")
	processed, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 1, h.pipeline.Status().ChangedCount)
	assert.Equal(t, 2, processed)
}

func TestPipeline_EagerRecordingMarksFailedDocumentsSeen(t *testing.T) {
	h := newHarness(t, nil)
	h.index.failOn[1] = true
	h.enumerator.set(doc("a.md", 2, "A"))

	processed, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.True(t, h.store.has("docmeta:doc-a.md"))

	_, err = h.runOnce(t)
	require.NoError(t, err)
	assert.Zero(t, h.pipeline.Status().ChangedCount)
}

func TestPipeline_DeferredRecordingRetriesFailedDocuments(t *testing.T) {
	h := newHarness(t, []DetectorOption{WithDeferredRecording(true)}, WithBatchSize(2))
	h.index.failOn[2] = true
	h.enumerator.set(doc("a.md", 2, "A"), doc("b.md", 2, "B"))

	processed, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.True(t, h.store.has("docmeta:doc-a.md"))
	assert.False(t, h.store.has("docmeta:doc-b.md"))

	h.index.batches = nil
	processed, err = h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 1, h.pipeline.Status().ChangedCount)
	assert.Equal(t, 2, processed)
	assert.Equal(t, []string{"b_chunk_1", "b_chunk_2"}, h.index.ids())
}

func TestPipeline_StemCollisionSkipsSecondDocument(t *testing.T) {
	h := newHarness(t, nil)
	first := doc("a b.md", 1, "one")
	second := doc("a_b.md", 1, "two")
	h.enumerator.set(first, second)

	processed, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"a_b_chunk_1"}, h.index.ids())
}

func TestPipeline_StemOwnerHoldsAcrossRuns(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 2, "M"), doc("a.txt", 2, "T"))

	_, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_chunk_1", "a_chunk_2"}, h.index.ids())
	assert.Equal(t, "M part 1", h.index.batches[0][0].Text)
	assert.Equal(t, 1, h.pipeline.Status().ChangedCount)
	_, recorded := h.store.hashes[h.detector.Key(core.DocumentID("a.txt"))]
	assert.False(t, recorded, "a document that cannot own its stem must not be fingerprinted")

	h.index.batches = nil
	h.enumerator.set(doc("a.md", 2, "M"), doc("a.txt", 2, "T edited"))
	processed, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Zero(t, h.index.calls(), "chunks of a.md must not be overwritten")
	assert.Zero(t, h.pipeline.Status().ChangedCount)
}

func TestPipeline_EagerDetectionRecordsFingerprints(t *testing.T) {
	h := newHarness(t, nil)
	h.enumerator.set(doc("a.md", 1, "A"), doc("b.md", 1, "B"))

	_, err := h.runOnce(t)
	require.NoError(t, err)
	assert.Equal(t, 2, h.store.sets)
	assert.False(t, h.detector.IsChanged(context.Background(), doc("a.md", 1, "A")))
}

func TestPipeline_Normalizer(t *testing.T) {
	h := newHarness(t, nil, WithNormalizer(source.NewNormalizer(source.NormalizeOptions{NormalizeWhitespace: true})))
	h.enumerator.set(&core.SourceDocument{
		ID:       "doc-a.md",
		Content:  core.Markdown{Text: "spaced    out|text"},
		Metadata: core.Metadata{core.MetaSource: "a.md"},
	})

	_, err := h.runOnce(t)
	require.NoError(t, err)
	require.Len(t, h.index.batches, 1)
	assert.Equal(t, "spaced out", h.index.batches[0][0].Text)
}

func TestPipeline_Pacing(t *testing.T) {
	h := newHarness(t, nil, WithBatchSize(1), WithPacing(30*time.Millisecond))
	h.enumerator.set(doc("a.md", 3, "A"))

	start := time.Now()
	_, err := h.runOnce(t)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}
