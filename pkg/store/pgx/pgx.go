package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/store"
)

// StatementDBIndex stores statement embeddings in PostgreSQL and searches
// them with pgvector cosine distance.
type StatementDBIndex struct {
	conn *pgxpool.Pool
	dim  int
}

// NewStatementDBIndexParams configures a StatementDBIndex.
type NewStatementDBIndexParams struct {
	Conn *pgxpool.Pool

	// Dimensions is the embedding width of the statements table.
	Dimensions int
}

// NewStatementDBIndex creates the index and bootstraps its schema.
func NewStatementDBIndex(ctx context.Context, params NewStatementDBIndexParams) (*StatementDBIndex, error) {
	idx := &StatementDBIndex{
		conn: params.Conn,
		dim:  params.Dimensions,
	}
	if err := idx.bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("failed to bootstrap statement index: %w", err)
	}
	return idx, nil
}

func (i *StatementDBIndex) bootstrap(ctx context.Context) error {
	if _, err := i.conn.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return err
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS statements (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			clip_id INT NOT NULL,
			node_id TEXT NOT NULL,
			statement TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, i.dim)
	if _, err := i.conn.Exec(ctx, schema); err != nil {
		return err
	}
	_, err := i.conn.Exec(ctx, `CREATE INDEX IF NOT EXISTS statements_clip_id_idx ON statements (clip_id)`)
	return err
}

// IndexClip replaces the stored statements of the clip with the node's
// statements in one transaction.
func (i *StatementDBIndex) IndexClip(ctx context.Context, node *memory.EpisodicNode) error {
	if len(node.Statements) != len(node.StatementEmbeddings) {
		return fmt.Errorf(
			"clip %d has %d statements but %d embeddings",
			node.ClipID, len(node.Statements), len(node.StatementEmbeddings),
		)
	}

	tx, err := i.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM statements WHERE clip_id = $1`, node.ClipID); err != nil {
		return fmt.Errorf("failed to clear clip %d: %w", node.ClipID, err)
	}

	for idx, s := range node.Statements {
		_, err := tx.Exec(ctx,
			`INSERT INTO statements (clip_id, node_id, statement, embedding) VALUES ($1, $2, $3, $4)`,
			node.ClipID, node.ID, s, pgvector.NewVector(node.StatementEmbeddings[idx]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert statement for clip %d: %w", node.ClipID, err)
		}
	}

	return tx.Commit(ctx)
}

// Search returns the topK most similar statements by cosine distance.
func (i *StatementDBIndex) Search(ctx context.Context, embedding []float32, topK int) ([]store.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := i.conn.Query(ctx, `
		SELECT clip_id, node_id, statement, 1 - (embedding <=> $1) AS score
		FROM statements
		ORDER BY embedding <=> $1, clip_id
		LIMIT $2`,
		pgvector.NewVector(embedding), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search statements: %w", err)
	}
	defer rows.Close()

	hits := make([]store.Hit, 0, topK)
	for rows.Next() {
		var h store.Hit
		if err := rows.Scan(&h.ClipID, &h.NodeID, &h.Statement, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan statement row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
