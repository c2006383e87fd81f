package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/ai"
)

type expandResponse struct {
	Queries []string `json:"queries" jsonschema_description:"Alternative search queries for the question"`
}

// expand turns the question into queryNum search queries. One query skips
// the model entirely and uses the question as is.
func (e *Engine) expand(ctx context.Context, question string, queryNum int) ([]string, error) {
	if queryNum == 1 {
		return []string{question}, nil
	}

	prompt := fmt.Sprintf(ai.ExpandPrompt, question, queryNum)

	res, err := util.RetryWithContext(ctx, e.maxRetries, func(rCtx context.Context) (expandResponse, error) {
		var r expandResponse
		err := e.aiClient.GenerateCompletionWithFormat(
			rCtx,
			"query_expansion",
			"Alternative search queries for a question about a video",
			prompt,
			&r,
		)
		return r, err
	})
	if err != nil {
		return nil, err
	}

	queries := make([]string, 0, queryNum)
	seen := make(map[string]struct{})
	for _, q := range res.Queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
		if len(queries) == queryNum {
			break
		}
	}

	// the original question is always represented
	if _, ok := seen[question]; !ok {
		if len(queries) < queryNum {
			queries = append(queries, question)
		} else {
			queries[len(queries)-1] = question
		}
	}
	if len(queries) == 0 {
		queries = []string{question}
	}
	return queries, nil
}
