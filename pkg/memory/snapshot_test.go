package memory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := NewGraph()
	id, err := g.NewIdentity(NewIdentityParams{
		Name:           "Alice",
		Aliases:        []string{"clip0/p1"},
		FaceEmbeddings: [][]float32{{1, 0}},
		ClipID:         0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.AppendClip(&EpisodicNode{
		ClipID:     0,
		Statements: []string{"<p1> enters"},
		Mentions:   map[string]string{"<p1>": "clip0/p1"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.MarkUnresolved("clip0/p2")

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := g.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.ClipCount() != 1 {
		t.Errorf("expected 1 clip, got %d", loaded.ClipCount())
	}
	if loaded.IdentityCount() != 1 {
		t.Errorf("expected 1 identity, got %d", loaded.IdentityCount())
	}
	ident, ok := loaded.Resolve("clip0/p1")
	if !ok || ident.ID != id {
		t.Errorf("alias resolution lost across snapshot, got %v ok=%v", ident, ok)
	}
	if got := loaded.UnresolvedAliases(); len(got) != 1 || got[0] != "clip0/p2" {
		t.Errorf("unresolved aliases lost across snapshot: %v", got)
	}

	// new identities continue the id sequence
	id2, err := loaded.NewIdentity(NewIdentityParams{
		FaceEmbeddings: [][]float32{{0, 1}},
		ClipID:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id2 <= id {
		t.Errorf("id %s does not sort after %s", id2, id)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(`{"format":"other.v9","graph":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown snapshot format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
