package ingest

import "fmt"

// ExtractionError reports a single modality failing on a clip. The clip
// can still be ingested from the remaining modalities.
type ExtractionError struct {
	Modality string
	ClipID   int
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed on clip %d: %v", e.Modality, e.ClipID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IngestionError reports a clip that could not be ingested at all. The
// pipeline skips the clip and continues with the rest of the video.
type IngestionError struct {
	VideoID string
	ClipID  int
	Err     error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to ingest clip %d of video %s: %v", e.ClipID, e.VideoID, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
