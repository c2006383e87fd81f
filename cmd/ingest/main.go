package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/vidmem/vidmem/internal/clients"
	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/extract"
	"github.com/vidmem/vidmem/pkg/ingest"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/logger/console"
	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/resolver"
	"github.com/vidmem/vidmem/pkg/store/mem"
)

func main() {
	var (
		videoID     = flag.String("video", "", "video id for a single ingestion")
		clipDir     = flag.String("dir", "", "directory holding the video's clips")
		snapshot    = flag.String("snapshot", "", "path the graph snapshot is written to")
		clipSeconds = flag.Float64("clip-seconds", 30, "duration of one clip")
		jobsFile    = flag.String("jobs", "", "JSON file with a list of ingest jobs")
		workers     = flag.Int("workers", 1, "how many videos ingest concurrently")
	)
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "ingest",
	})
	logger.Init(consoleLogger)

	jobs, err := collectJobs(*jobsFile, *videoID, *clipDir, *snapshot, *clipSeconds)
	if err != nil {
		logger.Fatal("Invalid arguments", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient := clients.NewAIClientFromEnv()

	reports, err := ingest.IngestBatch(ctx, ingest.BatchParams{
		Jobs:    jobs,
		Workers: *workers,
		Thresholds: resolver.Thresholds{
			Face:  util.GetEnvNumeric("RESOLVE_FACE_THRESHOLD", 0),
			Voice: util.GetEnvNumeric("RESOLVE_VOICE_THRESHOLD", 0),
			Merge: util.GetEnvNumeric("RESOLVE_MERGE_THRESHOLD", 0),
		},
		NewPipeline: func(g *memory.Graph, r *resolver.Resolver) (*ingest.Pipeline, error) {
			return ingest.NewPipeline(ingest.NewPipelineParams{
				Captions:     extract.NewAICaptionGenerator(aiClient),
				AIClient:     aiClient,
				Resolver:     r,
				Graph:        g,
				Index:        mem.NewStatementMemIndex(),
				MaxRetries:   int(util.GetEnvNumeric("INGEST_MAX_RETRIES", 3)),
				RefreshEvery: int(util.GetEnvNumeric("INGEST_REFRESH_EVERY", 0)),
			})
		},
	})
	if err != nil {
		logger.Fatal("Batch ingestion failed", "err", err)
	}

	for _, report := range reports {
		if report == nil {
			continue
		}
		logger.Info("Video ingested",
			"video_id", report.VideoID,
			"ingested", report.ClipsIngested,
			"skipped", report.ClipsSkipped,
			"extraction_failures", len(report.ExtractionFailures),
			"unresolved", len(report.UnresolvedAliases),
		)
	}
}

func collectJobs(jobsFile, videoID, clipDir, snapshot string, clipSeconds float64) ([]ingest.BatchJob, error) {
	if jobsFile != "" {
		data, err := os.ReadFile(jobsFile)
		if err != nil {
			return nil, err
		}
		var jobs []ingest.BatchJob
		if err := json.Unmarshal(data, &jobs); err != nil {
			return nil, err
		}
		return jobs, nil
	}

	if videoID == "" || clipDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	return []ingest.BatchJob{{
		VideoID:      videoID,
		ClipDir:      clipDir,
		SnapshotPath: snapshot,
		ClipSeconds:  clipSeconds,
	}}, nil
}
