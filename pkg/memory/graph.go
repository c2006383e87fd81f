package memory

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrDuplicateClip is returned when a clip id is appended twice.
	ErrDuplicateClip = errors.New("clip already present in graph")
	// ErrNoEmbeddings is returned when an identity is created without any
	// face or voice evidence.
	ErrNoEmbeddings = errors.New("identity requires at least one embedding")
)

// Graph is the persistent video memory graph: episodic nodes in ingestion
// order, identity nodes for the people observed, and an equivalence
// structure resolving aliases to identities. All operations are safe for
// concurrent use.
type Graph struct {
	mu sync.RWMutex

	episodic       []*EpisodicNode
	episodicByClip map[int]*EpisodicNode

	identities map[string]*IdentityNode
	equiv      *Equivalences
	unresolved map[string]struct{}

	seq      int
	identSeq int
}

// NewGraph creates an empty memory graph.
func NewGraph() *Graph {
	return &Graph{
		episodicByClip: make(map[int]*EpisodicNode),
		identities:     make(map[string]*IdentityNode),
		equiv:          NewEquivalences(),
		unresolved:     make(map[string]struct{}),
	}
}

// NewIdentityParams describes the evidence for a newly observed person.
type NewIdentityParams struct {
	Name    string
	Aliases []string

	FaceEmbeddings  [][]float32
	VoiceEmbeddings [][]float32

	ClipID int
}

// NewIdentity creates an identity node from first evidence and binds its
// aliases. Identity ids carry a sequence prefix so they sort in creation
// order, which keeps alias resolution deterministic across replays.
func (g *Graph) NewIdentity(params NewIdentityParams) (string, error) {
	if len(params.FaceEmbeddings) == 0 && len(params.VoiceEmbeddings) == 0 {
		return "", ErrNoEmbeddings
	}

	suffix, err := gonanoid.New(10)
	if err != nil {
		return "", fmt.Errorf("failed to generate identity id: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id := fmt.Sprintf("c%06d-%s", g.identSeq, suffix)
	g.identSeq++

	node := &IdentityNode{
		ID:              id,
		Name:            params.Name,
		Aliases:         append([]string{}, params.Aliases...),
		FaceEmbeddings:  params.FaceEmbeddings,
		VoiceEmbeddings: params.VoiceEmbeddings,
		FirstSeen:       params.ClipID,
		LastSeen:        params.ClipID,
	}
	g.identities[id] = node

	g.equiv.Add(id, id)
	for _, alias := range params.Aliases {
		g.equiv.Add(alias, id)
		delete(g.unresolved, alias)
	}

	return id, nil
}

// AttachEvidence adds new face and voice evidence to an existing identity
// and binds additional aliases to it.
func (g *Graph) AttachEvidence(
	identityID string,
	aliases []string,
	faces [][]float32,
	voices [][]float32,
	clipID int,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	canonical := identityID
	if resolved, ok := g.equiv.Resolve(identityID); ok {
		canonical = resolved
	}

	node, ok := g.identities[canonical]
	if !ok {
		return fmt.Errorf("unknown identity %s", identityID)
	}

	node.FaceEmbeddings = append(node.FaceEmbeddings, faces...)
	node.VoiceEmbeddings = append(node.VoiceEmbeddings, voices...)
	node.Aliases = append(node.Aliases, aliases...)
	if clipID > node.LastSeen {
		node.LastSeen = clipID
	}
	if clipID < node.FirstSeen {
		node.FirstSeen = clipID
	}

	for _, alias := range aliases {
		g.equiv.Add(alias, canonical)
		delete(g.unresolved, alias)
	}

	return nil
}

// SetName assigns a human-readable name to an identity.
func (g *Graph) SetName(identityID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	canonical := identityID
	if resolved, ok := g.equiv.Resolve(identityID); ok {
		canonical = resolved
	}
	node, ok := g.identities[canonical]
	if !ok {
		return fmt.Errorf("unknown identity %s", identityID)
	}
	node.Name = name
	return nil
}

// AppendClip adds the episodic node of one clip. The append is atomic: the
// node either becomes fully visible or the graph is unchanged. A clip id
// already present is rejected.
func (g *Graph) AppendClip(node *EpisodicNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.episodicByClip[node.ClipID]; ok {
		return fmt.Errorf("%w: clip %d", ErrDuplicateClip, node.ClipID)
	}

	if node.ID == "" {
		node.ID = fmt.Sprintf("clip%d", node.ClipID)
	}
	node.Seq = g.seq
	g.seq++

	g.episodic = append(g.episodic, node)
	g.episodicByClip[node.ClipID] = node
	return nil
}

// MarkUnresolved records an alias that could not be bound to any identity.
// Unresolved aliases surface in accounting and may resolve later when more
// evidence arrives.
func (g *Graph) MarkUnresolved(alias string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, known := g.equiv.Resolve(alias); known {
		return
	}
	g.unresolved[alias] = struct{}{}
}

// Resolve maps an alias to its identity node.
func (g *Graph) Resolve(alias string) (*IdentityNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolveLocked(alias)
}

func (g *Graph) resolveLocked(alias string) (*IdentityNode, bool) {
	canonical, ok := g.equiv.Resolve(alias)
	if !ok {
		return nil, false
	}
	node, ok := g.identities[canonical]
	return node, ok
}

// RefreshEquivalences re-clusters all identities and merges those whose
// face or voice evidence exceeds the threshold. Merges are monotonic: sets
// only grow, never split. The clip stream pauses for the duration. Returns
// the number of identities merged away.
func (g *Graph) RefreshEquivalences(threshold float64) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	// A merge grows the survivor's embedding set, which can push it over
	// the threshold against identities the scan already passed. Repeat the
	// pass until it merges nothing, so a refresh leaves nothing behind for
	// a second refresh to find.
	merged := 0
	for {
		pass := g.refreshPassLocked(threshold)
		if pass == 0 {
			break
		}
		merged += pass
	}
	return merged
}

func (g *Graph) refreshPassLocked(threshold float64) int {
	ids := make([]string, 0, len(g.identities))
	for id := range g.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	merged := 0
	for i := 0; i < len(ids); i++ {
		a := g.identities[ids[i]]
		if a == nil {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := g.identities[ids[j]]
			if b == nil {
				continue
			}
			face := maxPairwiseCosine(a.FaceEmbeddings, b.FaceEmbeddings)
			voice := maxPairwiseCosine(a.VoiceEmbeddings, b.VoiceEmbeddings)
			if face < threshold && voice < threshold {
				continue
			}

			g.mergeIdentitiesLocked(a, b)
			g.identities[ids[j]] = nil
			merged++
		}
	}

	// drop the tombstones left by absorbed identities
	for id, node := range g.identities {
		if node == nil {
			delete(g.identities, id)
		}
	}

	return merged
}

// mergeIdentitiesLocked folds b into a. The caller holds the write lock and
// guarantees a.ID < b.ID, so a is the canonical survivor.
func (g *Graph) mergeIdentitiesLocked(a, b *IdentityNode) {
	a.FaceEmbeddings = append(a.FaceEmbeddings, b.FaceEmbeddings...)
	a.VoiceEmbeddings = append(a.VoiceEmbeddings, b.VoiceEmbeddings...)
	a.Aliases = append(a.Aliases, b.ID)
	a.Aliases = append(a.Aliases, b.Aliases...)
	if a.Name == "" {
		a.Name = b.Name
	}
	if b.FirstSeen < a.FirstSeen {
		a.FirstSeen = b.FirstSeen
	}
	if b.LastSeen > a.LastSeen {
		a.LastSeen = b.LastSeen
	}
	g.equiv.Merge(a.ID, b.ID)
}

// EpisodicNodes iterates the episodic nodes in ingestion order.
func (g *Graph) EpisodicNodes() iter.Seq[*EpisodicNode] {
	return func(yield func(*EpisodicNode) bool) {
		g.mu.RLock()
		nodes := make([]*EpisodicNode, len(g.episodic))
		copy(nodes, g.episodic)
		g.mu.RUnlock()

		for _, n := range nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// IdentityNodes iterates the identity nodes in id order.
func (g *Graph) IdentityNodes() iter.Seq[*IdentityNode] {
	return func(yield func(*IdentityNode) bool) {
		g.mu.RLock()
		ids := make([]string, 0, len(g.identities))
		for id := range g.identities {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		nodes := make([]*IdentityNode, 0, len(ids))
		for _, id := range ids {
			nodes = append(nodes, g.identities[id])
		}
		g.mu.RUnlock()

		for _, n := range nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// EpisodicByClip returns the episodic node for a clip id.
func (g *Graph) EpisodicByClip(clipID int) (*EpisodicNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.episodicByClip[clipID]
	return n, ok
}

// ClipCount returns the number of clips appended so far.
func (g *Graph) ClipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.episodic)
}

// IdentityCount returns the number of live identity nodes.
func (g *Graph) IdentityCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.identities)
}

// UnresolvedAliases returns the aliases that never bound to an identity,
// sorted for stable output.
func (g *Graph) UnresolvedAliases() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.unresolved))
	for a := range g.unresolved {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// RenderedStatements returns the statements of an episodic node with every
// placeholder token replaced by the display name of its resolved identity.
// Unresolved placeholders keep their global alias.
func (g *Graph) RenderedStatements(node *EpisodicNode) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.renderedStatementsLocked(node)
}

func (g *Graph) renderedStatementsLocked(node *EpisodicNode) []string {
	replacements := make(map[string]string, len(node.Mentions))
	for token, alias := range node.Mentions {
		if ident, ok := g.resolveLocked(alias); ok {
			replacements[token] = ident.DisplayName()
		} else {
			replacements[token] = alias
		}
	}

	out := make([]string, len(node.Statements))
	for i, s := range node.Statements {
		for token, name := range replacements {
			s = strings.ReplaceAll(s, token, name)
		}
		out[i] = s
	}
	return out
}

// LookupStatements returns, in ingestion order, the rendered statements of
// every episodic node that mentions the identity. The id may be any alias
// of the identity; merged identities are followed to their survivor.
func (g *Graph) LookupStatements(identityID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ident, ok := g.resolveLocked(identityID)
	if !ok {
		return nil
	}

	var out []string
	for _, node := range g.episodic {
		mentions := false
		for _, alias := range node.Mentions {
			if m, ok := g.resolveLocked(alias); ok && m.ID == ident.ID {
				mentions = true
				break
			}
		}
		if mentions {
			out = append(out, g.renderedStatementsLocked(node)...)
		}
	}
	return out
}
