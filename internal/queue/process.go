package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/ai"
	"github.com/vidmem/vidmem/pkg/clip"
	"github.com/vidmem/vidmem/pkg/extract"
	"github.com/vidmem/vidmem/pkg/ingest"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/resolver"
	"github.com/vidmem/vidmem/pkg/store"
	"github.com/vidmem/vidmem/pkg/store/mem"
	storepgx "github.com/vidmem/vidmem/pkg/store/pgx"
)

// IngestJobMsg is one video ingestion job on the ingest queue.
type IngestJobMsg struct {
	VideoID      string  `json:"video_id"`
	ClipDir      string  `json:"clip_dir"`
	SnapshotPath string  `json:"snapshot_path"`
	ClipSeconds  float64 `json:"clip_seconds,omitempty"`
}

// ProcessIngestMessage handles one ingest job: it builds a fresh graph for
// the video, ingests every clip from the job's directory, and saves the
// snapshot. When a database pool is provided the statements index persists
// in PostgreSQL, otherwise an in-memory index is used.
func ProcessIngestMessage(
	ctx context.Context,
	aiClient ai.MemoryAIClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode ingest job: %w", err)
	}
	if data.VideoID == "" || data.ClipDir == "" {
		return fmt.Errorf("ingest job missing video_id or clip_dir")
	}

	logger.Info("[Queue] Ingest job received", "video_id", data.VideoID, "clip_dir", data.ClipDir)

	var index store.StatementIndex
	if conn != nil {
		dbIndex, err := storepgx.NewStatementDBIndex(ctx, storepgx.NewStatementDBIndexParams{
			Conn:       conn,
			Dimensions: int(util.GetEnvNumeric("AI_EMBED_DIM", 1536)),
		})
		if err != nil {
			return err
		}
		index = dbIndex
	} else {
		index = mem.NewStatementMemIndex()
	}

	g := memory.NewGraph()
	r := resolver.NewResolver(resolver.NewResolverParams{
		Graph: g,
		Thresholds: resolver.Thresholds{
			Face:  util.GetEnvNumeric("RESOLVE_FACE_THRESHOLD", 0),
			Voice: util.GetEnvNumeric("RESOLVE_VOICE_THRESHOLD", 0),
			Merge: util.GetEnvNumeric("RESOLVE_MERGE_THRESHOLD", 0),
		},
	})

	pipeline, err := ingest.NewPipeline(ingest.NewPipelineParams{
		Captions:     extract.NewAICaptionGenerator(aiClient),
		AIClient:     aiClient,
		Resolver:     r,
		Graph:        g,
		Index:        index,
		MaxRetries:   int(util.GetEnvNumeric("INGEST_MAX_RETRIES", 3)),
		RefreshEvery: int(util.GetEnvNumeric("INGEST_REFRESH_EVERY", 0)),
	})
	if err != nil {
		return err
	}

	src := clip.NewDirSource(clip.NewDirSourceParams{
		VideoID:     data.VideoID,
		Dir:         data.ClipDir,
		ClipSeconds: data.ClipSeconds,
	})

	report, err := pipeline.IngestVideo(ctx, data.VideoID, src)
	if err != nil {
		return err
	}

	if data.SnapshotPath != "" {
		if err := g.Save(data.SnapshotPath); err != nil {
			return fmt.Errorf("failed to save snapshot for video %s: %w", data.VideoID, err)
		}
	}

	logger.Info("[Queue] Ingest job done",
		"video_id", data.VideoID,
		"ingested", report.ClipsIngested,
		"skipped", report.ClipsSkipped,
		"unresolved", len(report.UnresolvedAliases),
	)

	return nil
}
