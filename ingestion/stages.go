package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/docindex/core"
)

// Enumerator lists the documents to index.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]*core.SourceDocument, error)
}

// Splitter breaks documents into chunks without ids.
type Splitter interface {
	Split(docs []*core.SourceDocument) ([]core.Chunk, error)
}

// Normalizer rewrites a document's text before splitting.
type Normalizer interface {
	Normalize(doc *core.SourceDocument) *core.SourceDocument
}

const (
	stageEnumerate = "enumerate"
	stageDetect    = "detect"
	stageSplit     = "split"
	stageAssign    = "assign"
	stageCommit    = "commit"
)

func stageError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPipelineStage, stage, err)
}

// enumerateStage lists documents. Any error discards what was found.
func enumerateStage(ctx context.Context, e Enumerator) ([]*core.SourceDocument, error) {
	docs, err := e.Enumerate(ctx)
	if err != nil {
		return nil, stageError(stageEnumerate, err)
	}
	return docs, nil
}

// claimStage reserves chunk id stems for every enumerated document, changed
// or not, so a stem stays with the same document across runs. Documents
// whose stem belongs to an earlier document are logged and dropped.
func claimStage(assigner *IdentityAssigner, docs []*core.SourceDocument, logger *slog.Logger) []*core.SourceDocument {
	owned, rejected := assigner.ClaimDocuments(docs)
	for _, doc := range docs {
		if err, ok := rejected[doc.ID]; ok {
			logger.Error("skipping document", "id", doc.ID, "err", err)
		}
	}
	return owned
}

// detectStage keeps the documents whose content changed, in order.
// When recording is deferred the verdicts of the kept documents are
// returned alongside; otherwise fingerprints are written as documents are
// checked and no verdicts are returned.
func detectStage(ctx context.Context, d *ChangeDetector, docs []*core.SourceDocument) ([]*core.SourceDocument, []Verdict) {
	var (
		changed  []*core.SourceDocument
		verdicts []Verdict
	)
	for _, doc := range docs {
		if !d.Deferred() {
			if d.IsChanged(ctx, doc) {
				changed = append(changed, doc)
			}
			continue
		}
		v := d.Check(ctx, doc)
		if !v.Changed {
			continue
		}
		changed = append(changed, doc)
		verdicts = append(verdicts, v)
	}
	return changed, verdicts
}

// normalizeStage applies n to every document. A nil n is a no-op.
func normalizeStage(n Normalizer, docs []*core.SourceDocument) []*core.SourceDocument {
	if n == nil {
		return docs
	}
	out := make([]*core.SourceDocument, len(docs))
	for i, doc := range docs {
		out[i] = n.Normalize(doc)
	}
	return out
}

// splitStage splits all documents. Any error aborts the run.
func splitStage(s Splitter, docs []*core.SourceDocument) ([]core.Chunk, error) {
	chunks, err := s.Split(docs)
	if err != nil {
		return nil, stageError(stageSplit, err)
	}
	return chunks, nil
}

// assignStage gives every chunk its stable id. Chunks that cannot be
// identified are logged and dropped; their parents are returned.
func assignStage(assigner *IdentityAssigner, chunks []core.Chunk, logger *slog.Logger) ([]core.Chunk, map[string]struct{}) {
	assigned := make([]core.Chunk, 0, len(chunks))
	lost := make(map[string]struct{})
	for _, chunk := range chunks {
		out, err := assigner.Assign(chunk)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, core.ErrIDCollision) {
				level = slog.LevelError
			}
			logger.Log(context.Background(), level, "skipping chunk", "parent", chunk.ParentID, "err", err)
			if !errors.Is(err, core.ErrEmptyChunk) {
				lost[chunk.ParentID] = struct{}{}
			}
			continue
		}
		assigned = append(assigned, out)
	}
	return assigned, lost
}

// commitStage writes chunks through c.
func commitStage(ctx context.Context, c *BatchCommitter, chunks []core.Chunk, onBatch func(CommitResult)) CommitResult {
	return c.Commit(ctx, chunks, onBatch)
}

// recordStage writes fingerprints for changed documents none of whose
// chunks were lost. Used only when recording is deferred.
func recordStage(ctx context.Context, d *ChangeDetector, verdicts []Verdict, lost ...map[string]struct{}) int {
	recorded := 0
outer:
	for _, v := range verdicts {
		for _, set := range lost {
			if _, ok := set[v.DocumentID]; ok {
				d.logger.Info("not recording fingerprint, chunks were lost", "id", v.DocumentID)
				continue outer
			}
		}
		if err := d.Record(ctx, v.DocumentID, v.Hash); err != nil {
			d.logger.Error("failed to record fingerprint", "id", v.DocumentID, "err", err)
			continue
		}
		recorded++
	}
	return recorded
}
