package memory

import "sort"

// Equivalences is a union-find over alias strings. Every alias resolves to
// the canonical identity id of its set. The canonical id of a merged set is
// the lexicographically smallest root, which keeps resolution stable under
// replay since identity ids sort in creation order.
type Equivalences struct {
	parent map[string]string
}

// NewEquivalences creates an empty equivalence structure.
func NewEquivalences() *Equivalences {
	return &Equivalences{parent: make(map[string]string)}
}

// Add binds an alias to a canonical identity id. Binding an alias that is
// already present unions the two sets instead of rebinding.
func (e *Equivalences) Add(alias, canonical string) {
	if _, ok := e.parent[canonical]; !ok {
		e.parent[canonical] = canonical
	}
	if _, ok := e.parent[alias]; ok {
		e.union(alias, canonical)
		return
	}
	e.parent[alias] = e.find(canonical)
}

// Resolve returns the canonical id for an alias, or false when the alias is
// unknown.
func (e *Equivalences) Resolve(alias string) (string, bool) {
	if _, ok := e.parent[alias]; !ok {
		return "", false
	}
	return e.find(alias), true
}

// Merge unions the sets of two known aliases. The smaller root string wins
// as canonical. Merging an unknown alias is a no-op returning false.
func (e *Equivalences) Merge(a, b string) bool {
	if _, ok := e.parent[a]; !ok {
		return false
	}
	if _, ok := e.parent[b]; !ok {
		return false
	}
	e.union(a, b)
	return true
}

// Len returns the number of known aliases.
func (e *Equivalences) Len() int {
	return len(e.parent)
}

// Aliases returns every known alias in sorted order.
func (e *Equivalences) Aliases() []string {
	out := make([]string, 0, len(e.parent))
	for a := range e.parent {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// find walks to the root with path compression.
func (e *Equivalences) find(alias string) string {
	root := alias
	for e.parent[root] != root {
		root = e.parent[root]
	}
	for e.parent[alias] != root {
		next := e.parent[alias]
		e.parent[alias] = root
		alias = next
	}
	return root
}

func (e *Equivalences) union(a, b string) {
	ra, rb := e.find(a), e.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	e.parent[rb] = ra
}

// snapshotParents exposes the raw parent map for serialization.
func (e *Equivalences) snapshotParents() map[string]string {
	out := make(map[string]string, len(e.parent))
	for a := range e.parent {
		out[a] = e.find(a)
	}
	return out
}

// restoreParents rebuilds the structure from a serialized parent map.
func restoreParents(parents map[string]string) *Equivalences {
	e := NewEquivalences()
	for a, root := range parents {
		if _, ok := e.parent[root]; !ok {
			e.parent[root] = root
		}
		e.parent[a] = root
	}
	return e
}
