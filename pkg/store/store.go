package store

import (
	"context"

	"github.com/vidmem/vidmem/pkg/memory"
)

// Hit is one statement returned by a similarity search.
type Hit struct {
	ClipID    int     `json:"clip_id"`
	NodeID    string  `json:"node_id"`
	Statement string  `json:"statement"`
	Score     float64 `json:"score"`
}

// StatementIndex stores the embedded statements of episodic nodes and
// searches them by vector similarity. The index is derived state: it can
// always be rebuilt from the graph, so implementations need not be
// transactional with graph updates.
type StatementIndex interface {
	// IndexClip adds every statement of the node together with its
	// embedding. Indexing the same clip twice replaces its entries.
	IndexClip(ctx context.Context, node *memory.EpisodicNode) error

	// Search returns the topK statements most similar to the embedding,
	// ordered by descending score. Ties break toward the earlier clip.
	Search(ctx context.Context, embedding []float32, topK int) ([]Hit, error)
}
