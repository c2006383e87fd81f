package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidmem/vidmem/internal/queue"
	"github.com/vidmem/vidmem/internal/server/middleware"
	"github.com/vidmem/vidmem/pkg/logger"
)

// IngestVideoHandler enqueues one video for ingestion.
func IngestVideoHandler(c echo.Context) error {
	type ingestVideoBody struct {
		VideoID      string  `json:"video_id"`
		ClipDir      string  `json:"clip_dir"`
		SnapshotPath string  `json:"snapshot_path"`
		ClipSeconds  float64 `json:"clip_seconds"`
	}

	type ingestVideoResponse struct {
		Message string `json:"message"`
		VideoID string `json:"video_id,omitempty"`
	}

	data := new(ingestVideoBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestVideoResponse{
			Message: "Invalid request body",
		})
	}
	if data.VideoID == "" || data.ClipDir == "" {
		return c.JSON(http.StatusBadRequest, ingestVideoResponse{
			Message: "video_id and clip_dir are required",
		})
	}

	appCtx := middleware.GetAppContext(c)

	msg := queue.IngestJobMsg{
		VideoID:      data.VideoID,
		ClipDir:      data.ClipDir,
		SnapshotPath: data.SnapshotPath,
		ClipSeconds:  data.ClipSeconds,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestVideoResponse{
			Message: "Failed to encode job",
		})
	}

	if err := queue.PublishFIFO(appCtx.Channel, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("[Server] Failed to enqueue ingest job", "video_id", data.VideoID, "err", err)
		return c.JSON(http.StatusInternalServerError, ingestVideoResponse{
			Message: "Failed to enqueue job",
		})
	}

	// the old snapshot is stale once the worker rewrites it
	appCtx.Graphs.Invalidate(data.VideoID)

	return c.JSON(http.StatusAccepted, ingestVideoResponse{
		Message: "Ingestion queued",
		VideoID: data.VideoID,
	})
}
