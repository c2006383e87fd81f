package retrieve

import (
	"sort"

	"github.com/vidmem/vidmem/pkg/store"
)

// nodeScore is the aggregated standing of one episodic node across the
// per-query rankings.
type nodeScore struct {
	nodeID string
	clipID int
	score  float64
	votes  int
}

// aggregate combines the per-query hit lists into at most topK nodes. All
// modes are deterministic: ties always break toward the earlier clip.
func aggregate(rankings [][]store.Hit, mode Mode, topK int) []nodeScore {
	switch mode {
	case ModeUnion:
		return aggregateUnion(rankings, topK)
	case ModeVote:
		return aggregateVote(rankings, topK)
	default:
		return aggregateArgmax(rankings, topK)
	}
}

// collect folds statement hits into per-node scores. A node's score is its
// best statement score; votes count the queries that retrieved it.
func collect(rankings [][]store.Hit) map[string]*nodeScore {
	nodes := make(map[string]*nodeScore)
	for _, hits := range rankings {
		seenThisQuery := make(map[string]struct{})
		for _, h := range hits {
			n, ok := nodes[h.NodeID]
			if !ok {
				n = &nodeScore{nodeID: h.NodeID, clipID: h.ClipID}
				nodes[h.NodeID] = n
			}
			if h.Score > n.score {
				n.score = h.Score
			}
			if _, seen := seenThisQuery[h.NodeID]; !seen {
				seenThisQuery[h.NodeID] = struct{}{}
				n.votes++
			}
		}
	}
	return nodes
}

func aggregateArgmax(rankings [][]store.Hit, topK int) []nodeScore {
	nodes := collect(rankings)

	out := make([]nodeScore, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].clipID < out[j].clipID
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func aggregateUnion(rankings [][]store.Hit, topK int) []nodeScore {
	nodes := collect(rankings)

	// per-query node order, deduped within the query
	perQuery := make([][]string, len(rankings))
	for qi, hits := range rankings {
		seen := make(map[string]struct{})
		for _, h := range hits {
			if _, ok := seen[h.NodeID]; ok {
				continue
			}
			seen[h.NodeID] = struct{}{}
			perQuery[qi] = append(perQuery[qi], h.NodeID)
		}
	}

	out := make([]nodeScore, 0, topK)
	taken := make(map[string]struct{})
	for depth := 0; len(out) < topK; depth++ {
		progressed := false
		for _, order := range perQuery {
			if depth >= len(order) {
				continue
			}
			progressed = true
			id := order[depth]
			if _, ok := taken[id]; ok {
				continue
			}
			taken[id] = struct{}{}
			out = append(out, *nodes[id])
			if len(out) == topK {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func aggregateVote(rankings [][]store.Hit, topK int) []nodeScore {
	nodes := collect(rankings)

	out := make([]nodeScore, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].votes != out[j].votes {
			return out[i].votes > out[j].votes
		}
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].clipID < out[j].clipID
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
