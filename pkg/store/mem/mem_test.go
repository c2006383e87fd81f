package mem

import (
	"context"
	"fmt"
	"testing"

	"github.com/vidmem/vidmem/pkg/memory"
)

func node(clipID int, statements []string, embeds [][]float32) *memory.EpisodicNode {
	return &memory.EpisodicNode{
		ID:                  fmt.Sprintf("clip%d", clipID),
		ClipID:              clipID,
		Statements:          statements,
		StatementEmbeddings: embeds,
	}
}

func TestIndexClipRejectsMismatch(t *testing.T) {
	idx := NewStatementMemIndex()
	err := idx.IndexClip(context.Background(), node(0, []string{"a", "b"}, [][]float32{{1}}))
	if err == nil {
		t.Fatal("expected error for statement/embedding mismatch")
	}
}

func TestSearchRanksByScore(t *testing.T) {
	idx := NewStatementMemIndex()
	ctx := context.Background()

	if err := idx.IndexClip(ctx, node(0, []string{"red door"}, [][]float32{{1, 0}})); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexClip(ctx, node(1, []string{"blue sky"}, [][]float32{{0, 1}})); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0.1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Statement != "red door" {
		t.Errorf("expected red door first, got %q", hits[0].Statement)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestSearchTieBreaksOnEarlierClip(t *testing.T) {
	idx := NewStatementMemIndex()
	ctx := context.Background()

	if err := idx.IndexClip(ctx, node(5, []string{"later"}, [][]float32{{1, 0}})); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexClip(ctx, node(2, []string{"earlier"}, [][]float32{{1, 0}})); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].ClipID != 2 {
		t.Errorf("tie should go to the earlier clip, got clip %d", hits[0].ClipID)
	}
}

func TestIndexClipReplacesEntries(t *testing.T) {
	idx := NewStatementMemIndex()
	ctx := context.Background()

	if err := idx.IndexClip(ctx, node(0, []string{"old"}, [][]float32{{1, 0}})); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexClip(ctx, node(0, []string{"new"}, [][]float32{{1, 0}})); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Statement != "new" {
		t.Errorf("re-indexing should replace entries, got %v", hits)
	}
}

func TestSearchZeroTopK(t *testing.T) {
	idx := NewStatementMemIndex()
	hits, err := idx.Search(context.Background(), []float32{1}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits, got %v", hits)
	}
}
