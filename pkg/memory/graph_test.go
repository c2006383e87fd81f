package memory

import (
	"errors"
	"testing"
)

func face(vals ...float32) []float32 { return vals }

func TestNewIdentityRequiresEmbeddings(t *testing.T) {
	g := NewGraph()
	_, err := g.NewIdentity(NewIdentityParams{Aliases: []string{"clip0/p1"}})
	if !errors.Is(err, ErrNoEmbeddings) {
		t.Fatalf("expected ErrNoEmbeddings, got %v", err)
	}
}

func TestNewIdentityBindsAliases(t *testing.T) {
	g := NewGraph()
	id, err := g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip0/p1"},
		FaceEmbeddings: [][]float32{face(1, 0)},
		ClipID:         0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ident, ok := g.Resolve("clip0/p1")
	if !ok {
		t.Fatal("alias should resolve after identity creation")
	}
	if ident.ID != id {
		t.Errorf("resolved to %s, want %s", ident.ID, id)
	}
}

func TestIdentityIDsSortInCreationOrder(t *testing.T) {
	g := NewGraph()
	var prev string
	for i := range 5 {
		id, err := g.NewIdentity(NewIdentityParams{
			FaceEmbeddings: [][]float32{face(float32(i), 1)},
			ClipID:         i,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if prev != "" && id <= prev {
			t.Errorf("id %s does not sort after %s", id, prev)
		}
		prev = id
	}
}

func TestAppendClipRejectsDuplicate(t *testing.T) {
	g := NewGraph()
	if err := g.AppendClip(&EpisodicNode{ClipID: 3, Statements: []string{"a"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := g.AppendClip(&EpisodicNode{ClipID: 3, Statements: []string{"b"}})
	if !errors.Is(err, ErrDuplicateClip) {
		t.Fatalf("expected ErrDuplicateClip, got %v", err)
	}
	if g.ClipCount() != 1 {
		t.Errorf("rejected append must not modify the graph, count=%d", g.ClipCount())
	}
}

func TestAppendClipAssignsSeq(t *testing.T) {
	g := NewGraph()
	for _, clipID := range []int{5, 2, 9} {
		if err := g.AppendClip(&EpisodicNode{ClipID: clipID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := 0
	for n := range g.EpisodicNodes() {
		if n.Seq != want {
			t.Errorf("node for clip %d has seq %d, want %d", n.ClipID, n.Seq, want)
		}
		want++
	}
	if want != 3 {
		t.Errorf("iterated %d nodes, want 3", want)
	}
}

func TestAttachEvidenceThroughAlias(t *testing.T) {
	g := NewGraph()
	id, err := g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip0/p1"},
		FaceEmbeddings: [][]float32{face(1, 0)},
		ClipID:         0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = g.AttachEvidence("clip0/p1", []string{"clip4/p2"}, [][]float32{face(0.9, 0.1)}, nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ident, _ := g.Resolve("clip4/p2")
	if ident.ID != id {
		t.Errorf("new alias resolved to %s, want %s", ident.ID, id)
	}
	if len(ident.FaceEmbeddings) != 2 {
		t.Errorf("expected 2 face embeddings, got %d", len(ident.FaceEmbeddings))
	}
	if ident.LastSeen != 4 {
		t.Errorf("expected last seen 4, got %d", ident.LastSeen)
	}
}

func TestAttachEvidenceUnknownIdentity(t *testing.T) {
	g := NewGraph()
	if err := g.AttachEvidence("nope", nil, nil, nil, 0); err == nil {
		t.Fatal("expected error for unknown identity")
	}
}

func TestMarkUnresolved(t *testing.T) {
	g := NewGraph()
	g.MarkUnresolved("clip2/p3")
	g.MarkUnresolved("clip1/p1")
	g.MarkUnresolved("clip2/p3")

	got := g.UnresolvedAliases()
	if len(got) != 2 || got[0] != "clip1/p1" || got[1] != "clip2/p3" {
		t.Errorf("unexpected unresolved aliases: %v", got)
	}

	// a resolved alias is never marked unresolved
	if _, err := g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip1/p1"},
		FaceEmbeddings: [][]float32{face(1, 0)},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.MarkUnresolved("clip1/p1")
	for _, a := range g.UnresolvedAliases() {
		if a == "clip1/p1" {
			t.Error("resolved alias still reported unresolved")
		}
	}
}

func TestRefreshEquivalencesMergesSimilarIdentities(t *testing.T) {
	g := NewGraph()
	idA, err := g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip0/p1"},
		FaceEmbeddings: [][]float32{face(1, 0, 0)},
		ClipID:         0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip1/p1"},
		FaceEmbeddings: [][]float32{face(0.99, 0.01, 0)},
		ClipID:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip1/p2"},
		FaceEmbeddings: [][]float32{face(0, 0, 1)},
		ClipID:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merged := g.RefreshEquivalences(0.8)
	if merged != 1 {
		t.Fatalf("expected 1 merge, got %d", merged)
	}
	if g.IdentityCount() != 2 {
		t.Errorf("expected 2 identities after merge, got %d", g.IdentityCount())
	}

	// both aliases now resolve to the older identity
	a, _ := g.Resolve("clip0/p1")
	b, _ := g.Resolve("clip1/p1")
	if a == nil || b == nil || a.ID != b.ID {
		t.Fatal("merged aliases should resolve to the same identity")
	}
	if a.ID != idA {
		t.Errorf("survivor should be the older identity %s, got %s", idA, a.ID)
	}

	// the distinct identity stays separate
	c, _ := g.Resolve("clip1/p2")
	if c.ID == a.ID {
		t.Error("dissimilar identity must not merge")
	}
}

func TestRefreshEquivalencesIdempotent(t *testing.T) {
	g := NewGraph()
	for i := range 3 {
		if _, err := g.NewIdentity(NewIdentityParams{
			FaceEmbeddings: [][]float32{face(1, float32(i) * 0.001)},
			ClipID:         i,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	first := g.RefreshEquivalences(0.9)
	if first != 2 {
		t.Fatalf("expected 2 merges, got %d", first)
	}
	if again := g.RefreshEquivalences(0.9); again != 0 {
		t.Errorf("second refresh should merge nothing, got %d", again)
	}
}

func TestRefreshEquivalencesTransitiveChainInOneRefresh(t *testing.T) {
	// A and B are too far apart to merge directly, but both are close to
	// C. C is created last, so the forward scan absorbs it into A before
	// comparing A against B; only the grown embedding set bridges the
	// gap. One refresh must still collapse all three.
	g := NewGraph()
	vectors := [][]float32{
		face(1, 0),           // 0 degrees
		face(0.5736, 0.8192), // 55 degrees, cos vs A = 0.574
		face(0.8660, 0.5),    // 30 degrees, cos vs A = 0.866, vs B = 0.906
	}
	for i, v := range vectors {
		if _, err := g.NewIdentity(NewIdentityParams{
			FaceEmbeddings: [][]float32{v},
			ClipID:         i,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	first := g.RefreshEquivalences(0.8)
	if first != 2 {
		t.Fatalf("expected 2 merges in the first refresh, got %d", first)
	}
	if g.IdentityCount() != 1 {
		t.Errorf("expected 1 identity, got %d", g.IdentityCount())
	}
	if again := g.RefreshEquivalences(0.8); again != 0 {
		t.Errorf("second refresh should merge nothing, got %d", again)
	}
}

func TestRenderedStatements(t *testing.T) {
	g := NewGraph()
	id, err := g.NewIdentity(NewIdentityParams{
		Name:           "Alice",
		Aliases:        []string{"clip0/p1"},
		FaceEmbeddings: [][]float32{face(1, 0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = id

	node := &EpisodicNode{
		ClipID:     0,
		Statements: []string{"<p1> opens the door", "<p2> waves at <p1>"},
		Mentions: map[string]string{
			"<p1>": "clip0/p1",
			"<p2>": "clip0/p2",
		},
	}
	if err := g.AppendClip(node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := g.RenderedStatements(node)
	if got[0] != "Alice opens the door" {
		t.Errorf("unexpected rendering: %q", got[0])
	}
	// unresolved placeholder keeps its global alias
	if got[1] != "clip0/p2 waves at Alice" {
		t.Errorf("unexpected rendering: %q", got[1])
	}
}

func TestLookupStatementsFollowsMerges(t *testing.T) {
	g := NewGraph()
	idA, err := g.NewIdentity(NewIdentityParams{
		Name:           "Alice",
		Aliases:        []string{"clip0/p1"},
		FaceEmbeddings: [][]float32{face(1, 0)},
		ClipID:         0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idB, err := g.NewIdentity(NewIdentityParams{
		Aliases:        []string{"clip1/p1"},
		FaceEmbeddings: [][]float32{face(0.99, 0.01)},
		ClipID:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clips := []*EpisodicNode{
		{
			ClipID:     0,
			Statements: []string{"<p1> opens the door"},
			Mentions:   map[string]string{"<p1>": "clip0/p1"},
		},
		{
			ClipID:     1,
			Statements: []string{"<p1> pours coffee"},
			Mentions:   map[string]string{"<p1>": "clip1/p1"},
		},
		{
			ClipID:     2,
			Statements: []string{"the kitchen is empty"},
		},
	}
	for _, node := range clips {
		if err := g.AppendClip(node); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// before the merge each identity only sees its own clip
	if got := g.LookupStatements(idA); len(got) != 1 || got[0] != "Alice opens the door" {
		t.Fatalf("unexpected statements before merge: %v", got)
	}

	if merged := g.RefreshEquivalences(0.8); merged != 1 {
		t.Fatalf("expected 1 merge, got %d", merged)
	}

	want := []string{"Alice opens the door", "Alice pours coffee"}
	got := g.LookupStatements(idA)
	if len(got) != len(want) {
		t.Fatalf("unexpected statements after merge: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, got[i], want[i])
		}
	}

	// the merged-away id keeps working as an alias of the survivor
	viaB := g.LookupStatements(idB)
	if len(viaB) != len(want) {
		t.Fatalf("lookup through merged id returned %v", viaB)
	}

	if got := g.LookupStatements("c999999-missing"); got != nil {
		t.Errorf("unknown identity should return nil, got %v", got)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", face(1, 0), face(1, 0), 1},
		{"orthogonal", face(1, 0), face(0, 1), 0},
		{"opposite", face(1, 0), face(-1, 0), -1},
		{"length mismatch", face(1, 0), face(1, 0, 0), 0},
		{"zero vector", face(0, 0), face(1, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}
