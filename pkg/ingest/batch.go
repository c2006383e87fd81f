package ingest

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vidmem/vidmem/pkg/clip"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/resolver"
)

// BatchJob is one video to ingest into its own graph.
type BatchJob struct {
	VideoID      string `json:"video_id"`
	ClipDir      string `json:"clip_dir"`
	SnapshotPath string `json:"snapshot_path"`

	ClipSeconds float64 `json:"clip_seconds"`
}

// BatchParams configures a batch ingestion run.
type BatchParams struct {
	Jobs []BatchJob

	// Workers bounds how many videos ingest concurrently. Defaults to 1.
	Workers int

	// NewPipeline builds the pipeline for one job. The graph and resolver
	// passed in are private to that job.
	NewPipeline func(g *memory.Graph, r *resolver.Resolver) (*Pipeline, error)

	Thresholds resolver.Thresholds
}

// IngestBatch runs the jobs with bounded concurrency. Each video gets a
// fresh graph which is snapshotted to the job's path when done. One job
// failing does not stop the others; the first failure is returned after
// all jobs finish.
func IngestBatch(ctx context.Context, params BatchParams) ([]*Report, error) {
	workers := params.Workers
	if workers <= 0 {
		workers = 1
	}

	reports := make([]*Report, len(params.Jobs))
	var mu sync.Mutex
	var firstErr error

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, job := range params.Jobs {
		eg.Go(func() error {
			report, err := runJob(gCtx, job, params)
			mu.Lock()
			defer mu.Unlock()
			reports[i] = report
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("video %s: %w", job.VideoID, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return reports, err
	}
	return reports, firstErr
}

func runJob(ctx context.Context, job BatchJob, params BatchParams) (*Report, error) {
	g := memory.NewGraph()
	r := resolver.NewResolver(resolver.NewResolverParams{
		Graph:      g,
		Thresholds: params.Thresholds,
	})

	pipeline, err := params.NewPipeline(g, r)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	src := clip.NewDirSource(clip.NewDirSourceParams{
		VideoID:     job.VideoID,
		Dir:         job.ClipDir,
		ClipSeconds: job.ClipSeconds,
	})

	report, err := pipeline.IngestVideo(ctx, job.VideoID, src)
	if err != nil {
		return report, err
	}

	if job.SnapshotPath != "" {
		if err := g.Save(job.SnapshotPath); err != nil {
			return report, fmt.Errorf("failed to save snapshot: %w", err)
		}
		logger.Info("[Ingest] Snapshot saved", "video_id", job.VideoID, "path", job.SnapshotPath)
	}

	return report, nil
}
