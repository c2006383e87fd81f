package ollama

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/vidmem/vidmem/pkg/ai"
)

// GenerateClipDescription sends a vision chat request with base64 clip media
// and returns the model's textual narration of the clip.
func (c *MemoryOllamaClient) GenerateClipDescription(
	ctx context.Context,
	prompt string,
	media ai.ClipMedia,
) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(media.Base64)
	if err != nil {
		return "", err
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.visionModel,
		Messages: []api.Message{
			{Role: "system", Content: prompt},
			{
				Role:    "user",
				Content: "",
				Images:  []api.ImageData{raw},
			},
		},
		Stream: &stream,
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(rCtx, req, func(cr api.ChatResponse) error {
		final = cr
		return nil
	}); err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}
