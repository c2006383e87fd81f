package ai

import (
	"context"
)

// ClipMedia is a base64-encoded still or short segment of a video clip,
// suitable for sending to a vision-capable model.
type ClipMedia struct {
	Base64 string `json:"base64"`
	MIME   string `json:"mime"`
}

// DataURL returns the media as a data URL for vision requests.
func (m ClipMedia) DataURL() string {
	return "data:" + m.MIME + ";base64," + m.Base64
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Higher values (e.g., 1.0) produce more random outputs, while lower values
// (e.g., 0.2) make outputs more focused and deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// MemoryAIClient defines the interface for AI operations used in memory graph
// construction and retrieval. Implementations handle text generation,
// structured output, embeddings, and clip description.
//
// Implementations must tolerate repeated calls with the same input; outputs
// may vary between calls but must stay semantically equivalent.
type MemoryAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
	GenerateClipDescription(
		ctx context.Context,
		prompt string,
		media ClipMedia,
	) (string, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
