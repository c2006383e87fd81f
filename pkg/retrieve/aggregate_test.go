package retrieve

import (
	"testing"

	"github.com/vidmem/vidmem/pkg/store"
)

func hit(clipID int, nodeID string, score float64) store.Hit {
	return store.Hit{ClipID: clipID, NodeID: nodeID, Score: score}
}

func ids(nodes []nodeScore) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.nodeID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAggregateArgmax(t *testing.T) {
	rankings := [][]store.Hit{
		{hit(0, "clip0", 0.9), hit(1, "clip1", 0.5)},
		{hit(2, "clip2", 0.7), hit(0, "clip0", 0.6)},
	}

	got := aggregate(rankings, ModeArgmax, 2)
	if !equal(ids(got), []string{"clip0", "clip2"}) {
		t.Errorf("unexpected selection: %v", ids(got))
	}
	if got[0].score != 0.9 {
		t.Errorf("argmax should keep the best score, got %v", got[0].score)
	}
}

func TestAggregateArgmaxTieBreaksEarlierClip(t *testing.T) {
	rankings := [][]store.Hit{
		{hit(7, "clip7", 0.8), hit(2, "clip2", 0.8)},
	}
	got := aggregate(rankings, ModeArgmax, 1)
	if got[0].nodeID != "clip2" {
		t.Errorf("tie should go to the earlier clip, got %s", got[0].nodeID)
	}
}

func TestAggregateUnionRoundRobin(t *testing.T) {
	rankings := [][]store.Hit{
		{hit(0, "clip0", 0.9), hit(1, "clip1", 0.8)},
		{hit(2, "clip2", 0.9), hit(0, "clip0", 0.7)},
	}

	got := aggregate(rankings, ModeUnion, 3)
	if !equal(ids(got), []string{"clip0", "clip2", "clip1"}) {
		t.Errorf("unexpected interleaving: %v", ids(got))
	}
}

func TestAggregateUnionTruncates(t *testing.T) {
	rankings := [][]store.Hit{
		{hit(0, "clip0", 0.9), hit(1, "clip1", 0.8), hit(2, "clip2", 0.7)},
	}
	got := aggregate(rankings, ModeUnion, 2)
	if len(got) != 2 {
		t.Errorf("expected 2 results, got %d", len(got))
	}
}

func TestAggregateVotePrefersFrequentNodes(t *testing.T) {
	rankings := [][]store.Hit{
		{hit(0, "clip0", 0.6), hit(1, "clip1", 0.95)},
		{hit(0, "clip0", 0.5), hit(2, "clip2", 0.9)},
		{hit(0, "clip0", 0.4)},
	}

	got := aggregate(rankings, ModeVote, 2)
	if got[0].nodeID != "clip0" {
		t.Errorf("most voted node should win, got %s", got[0].nodeID)
	}
	if got[0].votes != 3 {
		t.Errorf("expected 3 votes, got %d", got[0].votes)
	}
	// one vote each: higher score wins
	if got[1].nodeID != "clip1" {
		t.Errorf("expected clip1 second, got %s", got[1].nodeID)
	}
}

func TestAggregateVoteDuplicateHitsCountOnce(t *testing.T) {
	rankings := [][]store.Hit{
		{hit(0, "clip0", 0.6), hit(0, "clip0", 0.5)},
		{hit(1, "clip1", 0.7)},
	}
	got := aggregate(rankings, ModeVote, 2)
	for _, n := range got {
		if n.nodeID == "clip0" && n.votes != 1 {
			t.Errorf("two hits from one query are one vote, got %d", n.votes)
		}
	}
}

func TestAggregateEmptyRankings(t *testing.T) {
	for _, mode := range []Mode{ModeArgmax, ModeUnion, ModeVote} {
		if got := aggregate(nil, mode, 5); len(got) != 0 {
			t.Errorf("mode %s returned %d results for empty input", mode, len(got))
		}
	}
}
