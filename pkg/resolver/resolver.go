package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vidmem/vidmem/pkg/extract"
	"github.com/vidmem/vidmem/pkg/memory"
)

// Thresholds holds the cosine similarity cutoffs for identity decisions.
type Thresholds struct {
	// Face is the minimum similarity for two face embeddings to belong to
	// the same person.
	Face float64
	// Voice is the minimum similarity for two voice embeddings to belong
	// to the same person.
	Voice float64
	// Merge is the minimum similarity for folding two existing identity
	// nodes into one during an equivalence refresh.
	Merge float64
}

// DefaultThresholds returns the cutoffs used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{Face: 0.60, Voice: 0.70, Merge: 0.80}
}

// LocalIdentity is one person observed within a single clip, carrying the
// face and voice evidence clustered together for them.
type LocalIdentity struct {
	// Placeholder is the token used for this person in the clip's
	// statements, e.g. "<p1>".
	Placeholder string

	Faces  [][]float32
	Voices [][]float32

	// Start is the earliest time this person appears in the clip.
	Start float64
}

// GlobalAlias returns the graph-wide alias for a local identity of a clip.
func (l LocalIdentity) GlobalAlias(clipID int) string {
	name := strings.Trim(l.Placeholder, "<>")
	return fmt.Sprintf("clip%d/%s", clipID, name)
}

// Resolver assigns the people observed in clips to stable identities in a
// memory graph.
type Resolver struct {
	graph      *memory.Graph
	thresholds Thresholds
}

// NewResolverParams configures a Resolver.
type NewResolverParams struct {
	Graph      *memory.Graph
	Thresholds Thresholds
}

// NewResolver creates a resolver bound to a graph. Zero thresholds fall
// back to the defaults.
func NewResolver(params NewResolverParams) *Resolver {
	th := params.Thresholds
	def := DefaultThresholds()
	if th.Face <= 0 {
		th.Face = def.Face
	}
	if th.Voice <= 0 {
		th.Voice = def.Voice
	}
	if th.Merge <= 0 {
		th.Merge = def.Merge
	}
	return &Resolver{graph: params.Graph, thresholds: th}
}

// Thresholds returns the cutoffs the resolver operates with.
func (r *Resolver) Thresholds() Thresholds {
	return r.thresholds
}

// ResolveLocal clusters the face tracks and voice segments of one clip into
// the distinct people of that clip. Faces cluster by appearance, voices by
// speaker similarity, and a face cluster joins a voice cluster when a voice
// segment overlaps exactly one face track in time. Placeholders are
// assigned in order of first appearance.
func (r *Resolver) ResolveLocal(obs extract.ClipObservation) []LocalIdentity {
	equiv := memory.NewEquivalences()

	faceKeys := make([]string, len(obs.Faces))
	for i := range obs.Faces {
		faceKeys[i] = fmt.Sprintf("face:%03d", i)
		equiv.Add(faceKeys[i], faceKeys[i])
	}
	voiceKeys := make([]string, len(obs.Voices))
	for i := range obs.Voices {
		voiceKeys[i] = fmt.Sprintf("voice:%03d", i)
		equiv.Add(voiceKeys[i], voiceKeys[i])
	}

	for i := range obs.Faces {
		for j := i + 1; j < len(obs.Faces); j++ {
			sim := memory.Cosine(obs.Faces[i].Embedding, obs.Faces[j].Embedding)
			if sim >= r.thresholds.Face {
				equiv.Merge(faceKeys[i], faceKeys[j])
			}
		}
	}
	for i := range obs.Voices {
		for j := i + 1; j < len(obs.Voices); j++ {
			sim := memory.Cosine(obs.Voices[i].Embedding, obs.Voices[j].Embedding)
			if sim >= r.thresholds.Voice {
				equiv.Merge(voiceKeys[i], voiceKeys[j])
			}
		}
	}

	// a speech segment overlapping exactly one face track binds the voice
	// to that face
	for vi, v := range obs.Voices {
		overlapping := -1
		count := 0
		for fi, f := range obs.Faces {
			if f.Start < v.End && v.Start < f.End {
				overlapping = fi
				count++
			}
		}
		if count == 1 {
			equiv.Merge(voiceKeys[vi], faceKeys[overlapping])
		}
	}

	type cluster struct {
		faces  [][]float32
		voices [][]float32
		start  float64
		first  string
	}
	clusters := make(map[string]*cluster)

	get := func(key string, start float64) *cluster {
		root, _ := equiv.Resolve(key)
		c, ok := clusters[root]
		if !ok {
			c = &cluster{start: start, first: key}
			clusters[root] = c
		}
		if start < c.start {
			c.start = start
			c.first = key
		}
		return c
	}

	for i, f := range obs.Faces {
		c := get(faceKeys[i], f.Start)
		c.faces = append(c.faces, f.Embedding)
	}
	for i, v := range obs.Voices {
		c := get(voiceKeys[i], v.Start)
		c.voices = append(c.voices, v.Embedding)
	}

	ordered := make([]*cluster, 0, len(clusters))
	for _, c := range clusters {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].start != ordered[j].start {
			return ordered[i].start < ordered[j].start
		}
		return ordered[i].first < ordered[j].first
	})

	out := make([]LocalIdentity, 0, len(ordered))
	for i, c := range ordered {
		out = append(out, LocalIdentity{
			Placeholder: fmt.Sprintf("<p%d>", i+1),
			Faces:       c.faces,
			Voices:      c.voices,
			Start:       c.start,
		})
	}
	return out
}

// ResolveGlobal binds the people of one clip to identities in the graph.
// Each local identity is matched against all existing identity nodes; the
// best face or voice similarity above the threshold wins, with the more
// recently seen identity breaking exact ties. Unmatched people become new
// identity nodes. People with no embedding evidence are recorded as
// unresolved. Returns the mapping from placeholder token to global alias.
func (r *Resolver) ResolveGlobal(clipID int, locals []LocalIdentity) (map[string]string, error) {
	mentions := make(map[string]string, len(locals))

	for _, local := range locals {
		alias := local.GlobalAlias(clipID)
		mentions[local.Placeholder] = alias

		if len(local.Faces) == 0 && len(local.Voices) == 0 {
			r.graph.MarkUnresolved(alias)
			continue
		}

		best := r.bestMatch(local)
		if best != "" {
			err := r.graph.AttachEvidence(best, []string{alias}, local.Faces, local.Voices, clipID)
			if err != nil {
				return nil, fmt.Errorf("failed to attach evidence for %s: %w", alias, err)
			}
			continue
		}

		_, err := r.graph.NewIdentity(memory.NewIdentityParams{
			Aliases:         []string{alias},
			FaceEmbeddings:  local.Faces,
			VoiceEmbeddings: local.Voices,
			ClipID:          clipID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create identity for %s: %w", alias, err)
		}
	}

	return mentions, nil
}

// bestMatch returns the id of the existing identity most similar to the
// local evidence, or "" when nothing clears the thresholds.
func (r *Resolver) bestMatch(local LocalIdentity) string {
	bestID := ""
	bestSim := 0.0
	bestSeen := -1

	for ident := range r.graph.IdentityNodes() {
		sim := 0.0
		accepted := false

		if len(local.Faces) > 0 {
			if s := maxSim(local.Faces, ident.FaceEmbeddings); s >= r.thresholds.Face {
				accepted = true
				if s > sim {
					sim = s
				}
			}
		}
		if len(local.Voices) > 0 {
			if s := maxSim(local.Voices, ident.VoiceEmbeddings); s >= r.thresholds.Voice {
				accepted = true
				if s > sim {
					sim = s
				}
			}
		}
		if !accepted {
			continue
		}

		if sim > bestSim || (sim == bestSim && ident.LastSeen > bestSeen) {
			bestID = ident.ID
			bestSim = sim
			bestSeen = ident.LastSeen
		}
	}
	return bestID
}

func maxSim(a, b [][]float32) float64 {
	best := 0.0
	for _, va := range a {
		for _, vb := range b {
			if s := memory.Cosine(va, vb); s > best {
				best = s
			}
		}
	}
	return best
}

// RefreshEquivalences re-clusters the graph's identities using the merge
// threshold. See memory.Graph.RefreshEquivalences for semantics.
func (r *Resolver) RefreshEquivalences() int {
	return r.graph.RefreshEquivalences(r.thresholds.Merge)
}
