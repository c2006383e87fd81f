package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

// SnapshotFormat identifies the snapshot envelope this package writes.
const SnapshotFormat = "vidmem.graph.v1"

type snapshotEnvelope struct {
	Format  string        `json:"format"`
	SavedAt time.Time     `json:"saved_at"`
	Graph   snapshotGraph `json:"graph"`
}

type snapshotGraph struct {
	Episodic   []*EpisodicNode   `json:"episodic"`
	Identities []*IdentityNode   `json:"identities"`
	Parents    map[string]string `json:"equivalences"`
	Unresolved []string          `json:"unresolved,omitempty"`
	IdentSeq   int               `json:"ident_seq"`
}

// Save writes the graph to path as a versioned JSON snapshot. The file is
// written to a temp name and renamed so a crash never leaves a torn
// snapshot behind.
func (g *Graph) Save(path string) error {
	g.mu.RLock()
	env := snapshotEnvelope{
		Format:  SnapshotFormat,
		SavedAt: time.Now().UTC(),
		Graph: snapshotGraph{
			Episodic:   g.episodic,
			Identities: make([]*IdentityNode, 0, len(g.identities)),
			Parents:    g.equiv.snapshotParents(),
			Unresolved: make([]string, 0, len(g.unresolved)),
			IdentSeq:   g.identSeq,
		},
	}
	ids := make([]string, 0, len(g.identities))
	for id := range g.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		env.Graph.Identities = append(env.Graph.Identities, g.identities[id])
	}
	for a := range g.unresolved {
		env.Graph.Unresolved = append(env.Graph.Unresolved, a)
	}
	sort.Strings(env.Graph.Unresolved)
	g.mu.RUnlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal graph snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write graph snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize graph snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save and reconstructs the graph.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph snapshot: %w", err)
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse graph snapshot: %w", err)
	}
	if env.Format != SnapshotFormat {
		return nil, fmt.Errorf("unsupported snapshot format %q", env.Format)
	}

	g := NewGraph()
	g.equiv = restoreParents(env.Graph.Parents)
	g.identSeq = env.Graph.IdentSeq

	for _, ident := range env.Graph.Identities {
		g.identities[ident.ID] = ident
	}

	sort.Slice(env.Graph.Episodic, func(i, j int) bool {
		return env.Graph.Episodic[i].Seq < env.Graph.Episodic[j].Seq
	})
	for _, node := range env.Graph.Episodic {
		g.episodic = append(g.episodic, node)
		g.episodicByClip[node.ClipID] = node
		if node.Seq >= g.seq {
			g.seq = node.Seq + 1
		}
	}

	for _, a := range env.Graph.Unresolved {
		g.unresolved[a] = struct{}{}
	}

	return g, nil
}
