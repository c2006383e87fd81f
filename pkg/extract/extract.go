package extract

import (
	"context"

	"github.com/vidmem/vidmem/pkg/ai"
	"github.com/vidmem/vidmem/pkg/clip"
)

// FaceExtractor detects and tracks faces in a clip and produces one
// embedding per track.
type FaceExtractor interface {
	ExtractFaces(ctx context.Context, c clip.Clip, media ai.ClipMedia) ([]FaceTrack, error)
}

// VoiceExtractor diarizes the audio of a clip into speaker segments with
// one embedding per segment.
type VoiceExtractor interface {
	ExtractVoices(ctx context.Context, c clip.Clip, media ai.ClipMedia) ([]VoiceSegment, error)
}

// CaptionGenerator produces memory statements for a clip. Statements refer
// to the people of the clip only through the provided placeholder tokens.
type CaptionGenerator interface {
	GenerateCaptions(
		ctx context.Context,
		c clip.Clip,
		media ai.ClipMedia,
		placeholders []string,
	) ([]string, error)
}
