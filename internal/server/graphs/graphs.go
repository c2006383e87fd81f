package graphs

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/store/mem"
)

var validGraphID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Entry is a loaded graph together with the statement index rebuilt from
// its episodic nodes.
type Entry struct {
	Graph *memory.Graph
	Index *mem.StatementMemIndex
}

// Cache loads graph snapshots from a directory and keeps them in memory.
// The index is derived from the snapshot on first load.
type Cache struct {
	dir string

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewCache creates a cache over the given snapshot directory.
func NewCache(dir string) *Cache {
	return &Cache{
		dir:     dir,
		entries: make(map[string]*Entry),
	}
}

// Get returns the graph for an id, loading <dir>/<id>.json on first use.
func (c *Cache) Get(ctx context.Context, id string) (*Entry, error) {
	if !validGraphID.MatchString(id) {
		return nil, fmt.Errorf("invalid graph id %q", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e, nil
	}

	g, err := memory.Load(filepath.Join(c.dir, id+".json"))
	if err != nil {
		return nil, err
	}

	idx := mem.NewStatementMemIndex()
	for node := range g.EpisodicNodes() {
		if len(node.StatementEmbeddings) != len(node.Statements) {
			continue
		}
		if err := idx.IndexClip(ctx, node); err != nil {
			return nil, fmt.Errorf("failed to index graph %s: %w", id, err)
		}
	}

	e := &Entry{Graph: g, Index: idx}
	c.entries[id] = e
	return e, nil
}

// Invalidate drops a cached graph so the next request reloads it.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}
