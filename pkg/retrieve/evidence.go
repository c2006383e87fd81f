package retrieve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// assemble turns the selected nodes into evidence ordered by ingestion
// sequence. The token budget bounds the rendered statements; nodes past
// the budget are dropped and the truncation is reported.
func (e *Engine) assemble(selected []nodeScore, tokenBudget int) ([]Evidence, bool) {
	evidence := make([]Evidence, 0, len(selected))
	for _, n := range selected {
		node, ok := e.graph.EpisodicByClip(n.clipID)
		if !ok {
			continue
		}
		evidence = append(evidence, Evidence{
			ClipID:     node.ClipID,
			NodeID:     node.ID,
			Seq:        node.Seq,
			Start:      node.Start,
			End:        node.End,
			Statements: e.graph.RenderedStatements(node),
			Score:      n.score,
		})
	}

	sort.Slice(evidence, func(i, j int) bool {
		return evidence[i].Seq < evidence[j].Seq
	})

	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		// without an encoder the budget cannot be enforced; keep all
		return evidence, false
	}

	used := 0
	for i, ev := range evidence {
		cost := 0
		for _, s := range ev.Statements {
			cost += len(enc.Encode(s, nil, nil))
		}
		if used+cost > tokenBudget && i > 0 {
			return evidence[:i], true
		}
		used += cost
	}
	return evidence, false
}

// renderEvidenceBlock formats the question and evidence for the answer
// prompt. Memories stay in event order.
func renderEvidenceBlock(question string, evidence []Evidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nMemories in event order:\n", question)
	for _, ev := range evidence {
		fmt.Fprintf(&b, "\n[clip %d, %.0fs-%.0fs]\n", ev.ClipID, ev.Start, ev.End)
		for _, s := range ev.Statements {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}
