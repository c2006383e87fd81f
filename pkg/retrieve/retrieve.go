package retrieve

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/ai"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/store"
)

// Mode selects how the per-query rankings combine into one result set.
type Mode string

const (
	// ModeArgmax keeps the nodes with the highest single-query score.
	ModeArgmax Mode = "argmax"
	// ModeUnion interleaves the per-query rankings round-robin.
	ModeUnion Mode = "union"
	// ModeVote prefers nodes retrieved by many queries.
	ModeVote Mode = "vote"
)

// ErrInvalidParams is returned for retrieval parameters that make no sense.
var ErrInvalidParams = errors.New("invalid retrieval parameters")

// Params tunes one retrieval request.
type Params struct {
	// QueryNum is how many search queries the question expands into.
	// Must be at least 1.
	QueryNum int
	// TopK bounds both the per-query hits and the final result set.
	TopK int
	// Mode selects the aggregation strategy. Defaults to ModeArgmax.
	Mode Mode
	// TokenBudget caps the evidence block. Defaults to 4000 tokens.
	TokenBudget int
}

func (p *Params) normalize() error {
	if p.QueryNum <= 0 {
		return fmt.Errorf("%w: query_num must be at least 1", ErrInvalidParams)
	}
	if p.TopK <= 0 {
		return fmt.Errorf("%w: topk must be at least 1", ErrInvalidParams)
	}
	if p.Mode == "" {
		p.Mode = ModeArgmax
	}
	switch p.Mode {
	case ModeArgmax, ModeUnion, ModeVote:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, p.Mode)
	}
	if p.TokenBudget <= 0 {
		p.TokenBudget = 4000
	}
	return nil
}

// QueryTrace records what one expanded query retrieved.
type QueryTrace struct {
	Query string      `json:"query"`
	Hits  []store.Hit `json:"hits"`
}

// Session is the trace of one retrieval: every expanded query, what it
// retrieved, and what survived aggregation.
type Session struct {
	Question string       `json:"question"`
	Queries  []string     `json:"queries"`
	Mode     Mode         `json:"mode"`
	PerQuery []QueryTrace `json:"per_query"`

	SelectedClips []int `json:"selected_clips"`
	EvidenceCount int   `json:"evidence_count"`
	Truncated     bool  `json:"truncated"`
}

// Evidence is one episodic node selected for answering, with its
// statements rendered so placeholder tokens become identity names.
type Evidence struct {
	ClipID     int      `json:"clip_id"`
	NodeID     string   `json:"node_id"`
	Seq        int      `json:"seq"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Statements []string `json:"statements"`
	Score      float64  `json:"score"`
}

// Answer is the synthesized reply to a question.
type Answer struct {
	Text         string `json:"text"`
	Unanswerable bool   `json:"unanswerable"`
}

// Engine runs graph-based retrieval over an ingested memory graph.
type Engine struct {
	aiClient   ai.MemoryAIClient
	graph      *memory.Graph
	index      store.StatementIndex
	maxRetries int
}

// NewEngineParams configures a retrieval engine.
type NewEngineParams struct {
	AIClient ai.MemoryAIClient
	Graph    *memory.Graph
	Index    store.StatementIndex

	// MaxRetries bounds retry attempts per model call. Defaults to 3.
	MaxRetries int
}

// NewEngine creates a retrieval engine.
func NewEngine(params NewEngineParams) (*Engine, error) {
	if params.AIClient == nil {
		return nil, errors.New("ai client is required")
	}
	if params.Graph == nil {
		return nil, errors.New("graph is required")
	}
	if params.Index == nil {
		return nil, errors.New("statement index is required")
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Engine{
		aiClient:   params.AIClient,
		graph:      params.Graph,
		index:      params.Index,
		maxRetries: maxRetries,
	}, nil
}

// Retrieve expands the question, ranks the index per query, aggregates the
// rankings, and assembles the evidence in event order.
func (e *Engine) Retrieve(ctx context.Context, question string, params Params) ([]Evidence, *Session, error) {
	if err := params.normalize(); err != nil {
		return nil, nil, err
	}

	queries, err := e.expand(ctx, question, params.QueryNum)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to expand question: %w", err)
	}

	session := &Session{
		Question: question,
		Queries:  queries,
		Mode:     params.Mode,
	}

	rankings := make([][]store.Hit, 0, len(queries))
	for _, q := range queries {
		embedding, err := util.RetryWithContext(ctx, e.maxRetries, func(rCtx context.Context) ([]float32, error) {
			return e.aiClient.GenerateEmbedding(rCtx, []byte(q))
		})
		if err != nil {
			return nil, session, fmt.Errorf("failed to embed query %q: %w", q, err)
		}

		hits, err := e.index.Search(ctx, embedding, params.TopK)
		if err != nil {
			return nil, session, fmt.Errorf("failed to search for query %q: %w", q, err)
		}

		session.PerQuery = append(session.PerQuery, QueryTrace{Query: q, Hits: hits})
		rankings = append(rankings, hits)
	}

	selected := aggregate(rankings, params.Mode, params.TopK)

	evidence, truncated := e.assemble(selected, params.TokenBudget)
	session.EvidenceCount = len(evidence)
	session.Truncated = truncated
	for _, ev := range evidence {
		session.SelectedClips = append(session.SelectedClips, ev.ClipID)
	}

	logger.Debug("[Retrieve] Retrieval done",
		"queries", len(queries),
		"evidence", len(evidence),
		"mode", string(params.Mode),
	)

	return evidence, session, nil
}

// AnswerWithRetrieval retrieves evidence for the question and synthesizes
// an answer from it. With no evidence the engine reports the question as
// unanswerable instead of guessing.
func (e *Engine) AnswerWithRetrieval(ctx context.Context, question string, params Params) (Answer, *Session, error) {
	evidence, session, err := e.Retrieve(ctx, question, params)
	if err != nil {
		return Answer{}, session, err
	}

	if len(evidence) == 0 {
		text, err := e.aiClient.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, question))
		if err != nil {
			text = "The video does not contain information to answer this question."
		}
		return Answer{Text: text, Unanswerable: true}, session, nil
	}

	prompt := fmt.Sprintf(ai.AnswerPrompt, renderEvidenceBlock(question, evidence))

	text, err := util.RetryWithContext(ctx, e.maxRetries, func(rCtx context.Context) (string, error) {
		return e.aiClient.GenerateCompletion(rCtx, prompt)
	})
	if err != nil {
		return Answer{}, session, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return Answer{Text: text}, session, nil
}
