package clip

import (
	"context"

	"github.com/vidmem/vidmem/pkg/ai"
)

// Clip is one fixed-length segment of a source video. Clips of a video are
// numbered from zero in temporal order.
type Clip struct {
	ID      int     `json:"id"`
	VideoID string  `json:"video_id"`
	Path    string  `json:"path"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Source enumerates the clips of a video in temporal order and loads their
// media for vision requests.
type Source interface {
	Clips(ctx context.Context) ([]Clip, error)
	Media(ctx context.Context, c Clip) (ai.ClipMedia, error)
}
