package ingestion

import (
	"fmt"
	"strconv"

	"github.com/poiesic/docindex/core"
)

// IdentityAssigner gives chunks stable ids of the form "<stem>_chunk_<n>",
// where n counts the chunks of each parent document from 1.
// A new assigner is used for every run.
type IdentityAssigner struct {
	counters map[string]int
	owners   map[string]string
}

// NewIdentityAssigner creates an assigner with empty counters.
func NewIdentityAssigner() *IdentityAssigner {
	return &IdentityAssigner{
		counters: make(map[string]int),
		owners:   make(map[string]string),
	}
}

// Assign returns chunk with its ID, SequenceIndex and chunk index metadata
// set. Invalid chunks and chunks whose stem already belongs to another
// parent are rejected without consuming a sequence number.
func (a *IdentityAssigner) Assign(chunk core.Chunk) (core.Chunk, error) {
	if err := core.ValidateChunk(&chunk); err != nil {
		return chunk, err
	}

	stem := core.Stem(chunk.Metadata[core.MetaSource])
	if err := a.Claim(stem, chunk.ParentID); err != nil {
		return chunk, err
	}

	a.counters[chunk.ParentID]++
	n := a.counters[chunk.ParentID]

	out := chunk
	out.ID = core.StableChunkID(stem, n)
	out.SequenceIndex = n
	out.Metadata = chunk.Metadata.Clone()
	out.Metadata[core.MetaParentID] = chunk.ParentID
	out.Metadata[core.MetaChunkIndex] = strconv.Itoa(n)
	return out, nil
}

// Claim reserves stem for parentID. The first parent to claim a stem owns
// it; claims by any other parent fail with core.ErrIDCollision.
func (a *IdentityAssigner) Claim(stem, parentID string) error {
	if owner, taken := a.owners[stem]; taken && owner != parentID {
		return fmt.Errorf("%w: stem %q of %s already used by %s", core.ErrIDCollision, stem, parentID, owner)
	}
	a.owners[stem] = parentID
	return nil
}

// ClaimDocuments claims the stem of every document in order and returns
// the documents that own their stem. The rest are returned with the
// collision error for each.
func (a *IdentityAssigner) ClaimDocuments(docs []*core.SourceDocument) ([]*core.SourceDocument, map[string]error) {
	owned := make([]*core.SourceDocument, 0, len(docs))
	rejected := make(map[string]error)
	for _, doc := range docs {
		if err := a.Claim(core.Stem(doc.SourceName()), doc.ID); err != nil {
			rejected[doc.ID] = err
			continue
		}
		owned = append(owned, doc)
	}
	return owned, rejected
}
