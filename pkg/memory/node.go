package memory

import (
	"fmt"
	"strings"
)

// Node is a vertex of the memory graph. Both episodic and identity nodes
// implement it.
type Node interface {
	NodeID() string
	StatementText() string
}

// EpisodicNode holds what one clip contributed to the graph. Statements may
// contain placeholder tokens such as <p1> that refer to people seen or heard
// in the clip. Mentions maps those tokens to global aliases which resolve to
// identity nodes through the equivalence structure.
type EpisodicNode struct {
	ID     string  `json:"id"`
	ClipID int     `json:"clip_id"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`

	Statements          []string    `json:"statements"`
	StatementEmbeddings [][]float32 `json:"statement_embeddings,omitempty"`

	// Mentions maps placeholder tokens to global aliases, e.g.
	// "<p1>" -> "clip3/p1".
	Mentions map[string]string `json:"mentions,omitempty"`

	// Seq is the position of this node in ingestion order.
	Seq int `json:"seq"`
}

// NodeID returns the graph-wide identifier of the node.
func (n *EpisodicNode) NodeID() string { return n.ID }

// StatementText returns all statements of the node joined into one block.
func (n *EpisodicNode) StatementText() string {
	return strings.Join(n.Statements, "\n")
}

// IdentityNode accumulates the evidence for one person across clips: the
// face and voice embeddings observed for them, and every alias that has been
// merged into this identity.
type IdentityNode struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	Aliases []string `json:"aliases"`

	FaceEmbeddings  [][]float32 `json:"face_embeddings,omitempty"`
	VoiceEmbeddings [][]float32 `json:"voice_embeddings,omitempty"`

	FirstSeen int `json:"first_seen"`
	LastSeen  int `json:"last_seen"`
}

// NodeID returns the graph-wide identifier of the node.
func (n *IdentityNode) NodeID() string { return n.ID }

// StatementText renders the identity for evidence assembly.
func (n *IdentityNode) StatementText() string {
	if n.Name != "" {
		return fmt.Sprintf("%s (%s)", n.Name, n.ID)
	}
	return n.ID
}

// DisplayName returns the human-readable name when one is known and the
// canonical id otherwise.
func (n *IdentityNode) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}
