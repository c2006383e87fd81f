package mem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/store"
)

type entry struct {
	clipID    int
	nodeID    string
	statement string
	embedding []float32
}

// StatementMemIndex is an in-memory statement index backed by a linear
// scan. It serves tests and single-video sessions where standing up a
// database is not worth it.
type StatementMemIndex struct {
	mu      sync.RWMutex
	entries []entry
}

// NewStatementMemIndex creates an empty in-memory index.
func NewStatementMemIndex() *StatementMemIndex {
	return &StatementMemIndex{}
}

// IndexClip adds the statements of the node. Entries of the same clip are
// replaced.
func (i *StatementMemIndex) IndexClip(ctx context.Context, node *memory.EpisodicNode) error {
	if len(node.Statements) != len(node.StatementEmbeddings) {
		return fmt.Errorf(
			"clip %d has %d statements but %d embeddings",
			node.ClipID, len(node.Statements), len(node.StatementEmbeddings),
		)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	kept := i.entries[:0]
	for _, e := range i.entries {
		if e.clipID != node.ClipID {
			kept = append(kept, e)
		}
	}
	i.entries = kept

	for idx, s := range node.Statements {
		i.entries = append(i.entries, entry{
			clipID:    node.ClipID,
			nodeID:    node.ID,
			statement: s,
			embedding: node.StatementEmbeddings[idx],
		})
	}
	return nil
}

// Search scans all entries and returns the topK best scored.
func (i *StatementMemIndex) Search(ctx context.Context, embedding []float32, topK int) ([]store.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	i.mu.RLock()
	hits := make([]store.Hit, 0, len(i.entries))
	for _, e := range i.entries {
		hits = append(hits, store.Hit{
			ClipID:    e.clipID,
			NodeID:    e.nodeID,
			Statement: e.statement,
			Score:     memory.Cosine(embedding, e.embedding),
		})
	}
	i.mu.RUnlock()

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ClipID < hits[b].ClipID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
