package ingest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/ai"
	"github.com/vidmem/vidmem/pkg/clip"
	"github.com/vidmem/vidmem/pkg/extract"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/memory"
	"github.com/vidmem/vidmem/pkg/resolver"
	"github.com/vidmem/vidmem/pkg/store"
)

// Pipeline ingests the clips of a video into a memory graph: multimodal
// extraction, identity resolution, and statement indexing. Clips are
// processed strictly in temporal order so identity assignment is
// deterministic.
type Pipeline struct {
	faces    extract.FaceExtractor
	voices   extract.VoiceExtractor
	captions extract.CaptionGenerator

	aiClient ai.MemoryAIClient
	resolver *resolver.Resolver
	graph    *memory.Graph
	index    store.StatementIndex

	maxRetries int

	// refreshEvery triggers an equivalence refresh after every N clips.
	// Zero disables periodic refreshes.
	refreshEvery int
}

// NewPipelineParams configures an ingestion pipeline. Faces and Voices may
// be nil when a modality is unavailable; Captions and AIClient are
// required.
type NewPipelineParams struct {
	Faces    extract.FaceExtractor
	Voices   extract.VoiceExtractor
	Captions extract.CaptionGenerator

	AIClient ai.MemoryAIClient
	Resolver *resolver.Resolver
	Graph    *memory.Graph
	Index    store.StatementIndex

	// MaxRetries bounds retry attempts per extraction call. Defaults to 3.
	MaxRetries int

	RefreshEvery int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(params NewPipelineParams) (*Pipeline, error) {
	if params.Captions == nil {
		return nil, errors.New("caption generator is required")
	}
	if params.AIClient == nil {
		return nil, errors.New("ai client is required")
	}
	if params.Graph == nil {
		return nil, errors.New("graph is required")
	}
	if params.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if params.Index == nil {
		return nil, errors.New("statement index is required")
	}

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Pipeline{
		faces:        params.Faces,
		voices:       params.Voices,
		captions:     params.Captions,
		aiClient:     params.AIClient,
		resolver:     params.Resolver,
		graph:        params.Graph,
		index:        params.Index,
		maxRetries:   maxRetries,
		refreshEvery: params.RefreshEvery,
	}, nil
}

// Report summarizes one video ingestion.
type Report struct {
	VideoID string `json:"video_id"`

	ClipsIngested int `json:"clips_ingested"`
	ClipsSkipped  int `json:"clips_skipped"`

	// ExtractionFailures lists modalities that failed on otherwise
	// ingested clips.
	ExtractionFailures []*ExtractionError `json:"extraction_failures,omitempty"`
	// SkippedClips lists clips dropped entirely.
	SkippedClips []*IngestionError `json:"skipped_clips,omitempty"`

	UnresolvedAliases []string `json:"unresolved_aliases,omitempty"`
}

// IngestVideo processes every clip of the source in order. A failed
// modality degrades the clip, a fully failed clip is skipped, and in both
// cases ingestion continues. The returned error is reserved for conditions
// that stop the whole video, such as context cancellation.
func (p *Pipeline) IngestVideo(ctx context.Context, videoID string, src clip.Source) (*Report, error) {
	clips, err := src.Clips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips of video %s: %w", videoID, err)
	}

	logger.Info("[Ingest] Processing video", "video_id", videoID, "clips", len(clips))

	report := &Report{VideoID: videoID}

	for _, c := range clips {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := p.ingestClip(ctx, videoID, src, c, report); err != nil {
			var ingErr *IngestionError
			if errors.As(err, &ingErr) {
				logger.Warn("[Ingest] Skipping clip", "video_id", videoID, "clip_id", c.ID, "error", ingErr.Err)
				report.ClipsSkipped++
				report.SkippedClips = append(report.SkippedClips, ingErr)
				continue
			}
			return report, err
		}
		report.ClipsIngested++

		if p.refreshEvery > 0 && report.ClipsIngested%p.refreshEvery == 0 {
			merged := p.resolver.RefreshEquivalences()
			if merged > 0 {
				logger.Info("[Ingest] Equivalence refresh", "video_id", videoID, "merged", merged)
			}
		}
	}

	report.UnresolvedAliases = p.graph.UnresolvedAliases()

	logger.Info("[Ingest] Video done",
		"video_id", videoID,
		"ingested", report.ClipsIngested,
		"skipped", report.ClipsSkipped,
		"identities", p.graph.IdentityCount(),
	)

	return report, nil
}

func (p *Pipeline) ingestClip(
	ctx context.Context,
	videoID string,
	src clip.Source,
	c clip.Clip,
	report *Report,
) error {
	// Reject duplicates up front so the failure cannot happen after
	// identity evidence has already been folded in.
	if _, exists := p.graph.EpisodicByClip(c.ID); exists {
		return &IngestionError{VideoID: videoID, ClipID: c.ID, Err: memory.ErrDuplicateClip}
	}

	media, err := util.RetryWithContext(ctx, p.maxRetries, func(rCtx context.Context) (ai.ClipMedia, error) {
		return src.Media(rCtx, c)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &IngestionError{VideoID: videoID, ClipID: c.ID, Err: err}
	}

	obs := extract.ClipObservation{ClipID: c.ID, Start: c.Start, End: c.End}

	var faceErr, voiceErr error
	eg, gCtx := errgroup.WithContext(ctx)
	if p.faces != nil {
		eg.Go(func() error {
			faces, err := util.RetryWithContext(gCtx, p.maxRetries, func(rCtx context.Context) ([]extract.FaceTrack, error) {
				return p.faces.ExtractFaces(rCtx, c, media)
			})
			if err != nil {
				faceErr = err
				return nil
			}
			obs.Faces = faces
			return nil
		})
	}
	if p.voices != nil {
		eg.Go(func() error {
			voices, err := util.RetryWithContext(gCtx, p.maxRetries, func(rCtx context.Context) ([]extract.VoiceSegment, error) {
				return p.voices.ExtractVoices(rCtx, c, media)
			})
			if err != nil {
				voiceErr = err
				return nil
			}
			obs.Voices = voices
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if faceErr != nil {
		report.ExtractionFailures = append(report.ExtractionFailures,
			&ExtractionError{Modality: "face", ClipID: c.ID, Err: faceErr})
	}
	if voiceErr != nil {
		report.ExtractionFailures = append(report.ExtractionFailures,
			&ExtractionError{Modality: "voice", ClipID: c.ID, Err: voiceErr})
	}

	locals := p.resolver.ResolveLocal(obs)
	placeholders := make([]string, len(locals))
	for i, l := range locals {
		placeholders[i] = l.Placeholder
	}

	statements, captionErr := util.RetryWithContext(ctx, p.maxRetries, func(rCtx context.Context) ([]string, error) {
		return p.captions.GenerateCaptions(rCtx, c, media, placeholders)
	})
	if captionErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		report.ExtractionFailures = append(report.ExtractionFailures,
			&ExtractionError{Modality: "caption", ClipID: c.ID, Err: captionErr})
	}

	if faceErr != nil && voiceErr != nil && captionErr != nil {
		return &IngestionError{
			VideoID: videoID,
			ClipID:  c.ID,
			Err:     errors.New("all modalities failed"),
		}
	}

	// Embed before touching the graph. ResolveGlobal creates identity
	// nodes and binds aliases, so every step that can still fail the clip
	// has to run first; a skipped clip must leave the graph exactly as it
	// was.
	embeddings := make([][]float32, len(statements))
	for i, s := range statements {
		emb, err := util.RetryWithContext(ctx, p.maxRetries, func(rCtx context.Context) ([]float32, error) {
			return p.aiClient.GenerateEmbedding(rCtx, []byte(s))
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &IngestionError{VideoID: videoID, ClipID: c.ID, Err: err}
		}
		embeddings[i] = emb
	}

	mentions, err := p.resolver.ResolveGlobal(c.ID, locals)
	if err != nil {
		return &IngestionError{VideoID: videoID, ClipID: c.ID, Err: err}
	}

	node := &memory.EpisodicNode{
		ClipID:              c.ID,
		Start:               c.Start,
		End:                 c.End,
		Statements:          statements,
		StatementEmbeddings: embeddings,
		Mentions:            mentions,
	}
	if err := p.graph.AppendClip(node); err != nil {
		return &IngestionError{VideoID: videoID, ClipID: c.ID, Err: err}
	}

	// the index is derived state and can be rebuilt, so a failure here
	// does not fail the clip
	if err := p.index.IndexClip(ctx, node); err != nil {
		logger.Warn("[Ingest] Failed to index clip", "video_id", videoID, "clip_id", c.ID, "error", err)
	}

	return nil
}

// Refresh re-clusters the identities of the graph on demand.
func (p *Pipeline) Refresh() int {
	return p.resolver.RefreshEquivalences()
}

// Graph returns the pipeline's memory graph.
func (p *Pipeline) Graph() *memory.Graph {
	return p.graph
}
